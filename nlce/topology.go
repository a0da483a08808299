package nlce

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hupe1980/qbasis/graph"
	"github.com/hupe1980/qbasis/symmetry"
)

// Topology is an isomorphism class of clusters.
type Topology[S symmetry.State] struct {
	// State is the first cluster classified into the class.
	State S
	// Multiplicity accumulates the multiplicities of all member clusters.
	Multiplicity int
	// Graph is the induced graph of State.
	Graph *graph.Graph
}

// Order returns the number of sites of the topology.
func (t *Topology[S]) Order() int { return t.Graph.Order() }

// Classifier groups clusters into topologies by exact graph isomorphism.
// Lookup is a linear scan over the known classes.
type Classifier[S symmetry.State] struct {
	adj     graph.Adjacency
	classes []*Topology[S]
}

// NewClassifier returns an empty classifier over the neighbor table adj.
func NewClassifier[S symmetry.State](adj graph.Adjacency) *Classifier[S] {
	return &Classifier[S]{adj: adj}
}

// Add classifies cluster s with multiplicity mul and returns the index of its
// topology. A cluster isomorphic to a known class only adds to its multiplicity.
func (c *Classifier[S]) Add(s S, mul int) (int, error) {
	if err := checkSites(s, c.adj); err != nil {
		return -1, err
	}
	g := graph.FromMask(s, c.adj)
	if i := c.Match(g); i >= 0 {
		c.classes[i].Multiplicity += mul
		return i, nil
	}
	c.classes = append(c.classes, &Topology[S]{State: s, Multiplicity: mul, Graph: g})
	return len(c.classes) - 1, nil
}

// Match returns the index of the class isomorphic to g, or -1.
func (c *Classifier[S]) Match(g *graph.Graph) int {
	return matchTopology(c.classes, g)
}

// Len returns the number of classes.
func (c *Classifier[S]) Len() int { return len(c.classes) }

// Topologies returns the classes in registration order.
func (c *Classifier[S]) Topologies() []*Topology[S] {
	return slices.Clone(c.classes)
}

// Classify groups clusters into topologies, visiting clusters in ascending
// state order so the result is reproducible.
func Classify[S symmetry.State](clusters Clusters[S], adj graph.Adjacency) ([]*Topology[S], error) {
	c := NewClassifier[S](adj)
	for _, s := range slices.Sorted(maps.Keys(clusters)) {
		if _, err := c.Add(s, clusters[s]); err != nil {
			return nil, err
		}
	}
	return c.Topologies(), nil
}

// checkSites rejects a cluster with bits beyond the lattice. Adjacencies that
// do not report their size are trusted.
func checkSites[S symmetry.State](s S, adj graph.Adjacency) error {
	sized, ok := adj.(interface{ Sites() int })
	if !ok {
		return nil
	}
	n := sized.Sites()
	if n < 64 && uint64(s)>>n != 0 {
		return fmt.Errorf("%w: cluster %#x on %d sites", ErrClusterSites, uint64(s), n)
	}
	return nil
}

func matchTopology[S symmetry.State](classes []*Topology[S], g *graph.Graph) int {
	for i, cls := range classes {
		if graph.Isomorphic(cls.Graph, g) {
			return i
		}
	}
	return -1
}
