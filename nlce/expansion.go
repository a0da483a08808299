package nlce

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/symmetry"
)

// wynnEpsilon keeps Wynn's epsilon recursion finite when two successive sums agree.
const wynnEpsilon = 1.1e-15

// Config describes the lattice an expansion is built on.
type Config[S symmetry.State] struct {
	// Order is the largest cluster size.
	Order int
	// Lattice is the neighbor list. Clusters must not wrap around it.
	Lattice *lattice.NeighborList
	// Full is the whole space group; it picks the canonical state of a cluster.
	Full symmetry.Engine[S]
	// Point is the point group; its orbits weight each canonical cluster.
	Point symmetry.Engine[S]
	// Translation canonicalizes point-group images.
	Translation symmetry.Engine[S]
}

// Cluster is one topology of an expansion.
type Cluster struct {
	State uint64   `json:"state"`
	Sites []int    `json:"sites"`
	Order int      `json:"order"`
	L     int      `json:"l"`
	Edges [][2]int `json:"edges"`
}

// Entry is a nonzero element of a row of the embedding matrix.
type Entry struct {
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

// Expansion is the cluster catalog of an NLCE: every topology up to the
// maximal order, its lattice constant L and the embedding matrix Y with
// Y[i][j] = -(number of embeddings of cluster j in cluster i).
//
// Clusters are ordered by order and, within an order, by classification
// order, so Y is strictly lower triangular.
type Expansion struct {
	order    int
	clusters []Cluster
	y        [][]Entry
}

// NewExpansion grows, classifies and counts the clusters of cfg.
func NewExpansion[S symmetry.State](ctx context.Context, cfg Config[S], opts ...Option) (*Expansion, error) {
	if cfg.Order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, cfg.Order)
	}
	if cfg.Order > combin.Width[S]() {
		return nil, fmt.Errorf("%w: order %d", ErrStateWidth, cfg.Order)
	}
	if cfg.Full == nil || cfg.Point == nil || cfg.Translation == nil {
		return nil, ErrMissingEngine
	}
	if cfg.Lattice == nil {
		return nil, fmt.Errorf("%w: nil lattice", lattice.ErrInvalidNeighborList)
	}
	o := applyOptions(opts)

	grower, err := NewGrower(cfg.Full, NewOrbitCounter(cfg.Point, cfg.Translation), cfg.Lattice)
	if err != nil {
		return nil, err
	}

	byOrder := make([][]*Topology[S], 0, cfg.Order)
	seeds := grower.Seed()
	for n := 1; n <= cfg.Order; n++ {
		if n > 1 {
			seeds, err = grower.Grow(ctx, seeds, opts...)
			if err != nil {
				return nil, err
			}
		}

		begin := time.Now()
		topos, err := Classify(seeds, cfg.Lattice)
		if err != nil {
			return nil, err
		}
		byOrder = append(byOrder, topos)

		o.logger.DebugContext(ctx, "clusters classified", "order", n, "clusters", len(seeds), "topologies", len(topos))
		o.emit(Event{Stage: StageClassify, Order: n, Inputs: len(seeds), Outputs: len(topos), Duration: time.Since(begin)})
	}

	e := &Expansion{order: cfg.Order}
	offsets := make([]int, cfg.Order+1)
	for n, topos := range byOrder {
		offsets[n+1] = offsets[n] + len(topos)
		for _, t := range topos {
			e.clusters = append(e.clusters, Cluster{
				State: uint64(t.State),
				Sites: t.Graph.Sites(),
				Order: n + 1,
				L:     t.Multiplicity,
				Edges: t.Graph.Edges(),
			})
		}
	}

	e.y = make([][]Entry, len(e.clusters))
	embeddings := make([]int, len(e.clusters))
	total := 0
	for n := 1; n <= cfg.Order; n++ {
		begin := time.Now()
		lo, hi := offsets[n-1], offsets[n]

		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(o.threads)
		for i := lo; i < hi; i++ {
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				if err := o.rc.AcquireWorker(egctx); err != nil {
					return err
				}
				defer o.rc.ReleaseWorker()

				c := e.clusters[i]
				var row []Entry
				for m := 1; m < c.Order; m++ {
					counts := countSubclusters(c.Sites, m, cfg.Lattice, byOrder[m-1])
					for j, cnt := range counts {
						if cnt > 0 {
							row = append(row, Entry{Col: offsets[m-1] + j, Value: -float64(cnt)})
							embeddings[i] += cnt
						}
					}
				}
				e.y[i] = row
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		found := 0
		for _, cnt := range embeddings[lo:hi] {
			found += cnt
		}
		total += found
		o.logger.DebugContext(ctx, "subclusters counted", "order", n, "topologies", hi-lo, "embeddings", found)
		o.emit(Event{Stage: StageSubclusters, Order: n, Inputs: hi - lo, Outputs: found, Duration: time.Since(begin)})
	}

	o.logger.InfoContext(ctx, "expansion built", "order", cfg.Order, "clusters", len(e.clusters), "embeddings", total)
	return e, nil
}

// Order returns the maximal cluster order.
func (e *Expansion) Order() int { return e.order }

// Len returns the number of clusters.
func (e *Expansion) Len() int { return len(e.clusters) }

// Cluster returns cluster i. Edges index into Sites.
func (e *Expansion) Cluster(i int) (Cluster, error) {
	if i < 0 || i >= len(e.clusters) {
		return Cluster{}, fmt.Errorf("%w: %d of %d", ErrClusterIndex, i, len(e.clusters))
	}
	c := e.clusters[i]
	c.Sites = slices.Clone(c.Sites)
	c.Edges = slices.Clone(c.Edges)
	return c, nil
}

// LatticeConstants returns L per cluster.
func (e *Expansion) LatticeConstants() []int {
	out := make([]int, len(e.clusters))
	for i, c := range e.clusters {
		out[i] = c.L
	}
	return out
}

// Orders returns the order per cluster.
func (e *Expansion) Orders() []int {
	out := make([]int, len(e.clusters))
	for i, c := range e.clusters {
		out[i] = c.Order
	}
	return out
}

// Row returns the nonzero entries of row i of Y.
func (e *Expansion) Row(i int) []Entry {
	return slices.Clone(e.y[i])
}

// Weights returns the cluster weights of the observable o, which holds one
// value per cluster: W_i = o_i + sum_j Y_ij W_j.
func (e *Expansion) Weights(o []float64) ([]float64, error) {
	if len(o) != len(e.clusters) {
		return nil, fmt.Errorf("%w: %d values for %d clusters", ErrObservableLength, len(o), len(e.clusters))
	}
	w := make([]float64, len(o))
	for i := range e.clusters {
		v := o[i]
		for _, ent := range e.y[i] {
			v += ent.Value * w[ent.Col]
		}
		w[i] = v
	}
	return w, nil
}

// PartialSums returns S_n = sum over clusters of order n of L_i W_i, for n = 1..Order.
func (e *Expansion) PartialSums(o []float64) ([]float64, error) {
	w, err := e.Weights(o)
	if err != nil {
		return nil, err
	}
	s := make([]float64, e.order)
	for i, c := range e.clusters {
		s[c.Order-1] += float64(c.L) * w[i]
	}
	return s, nil
}

// BareSums returns the cumulative partial sums.
func (e *Expansion) BareSums(o []float64) ([]float64, error) {
	s, err := e.PartialSums(o)
	if err != nil {
		return nil, err
	}
	for n := 1; n < len(s); n++ {
		s[n] += s[n-1]
	}
	return s, nil
}

// WynnSums applies ncycle rounds of Wynn's epsilon algorithm to the bare sums.
// It returns Order-2*ncycle values and requires 2*ncycle < Order.
func (e *Expansion) WynnSums(o []float64, ncycle int) ([]float64, error) {
	if ncycle < 0 || 2*ncycle >= e.order {
		return nil, fmt.Errorf("%w: %d cycles at order %d", ErrInvalidCycles, ncycle, e.order)
	}
	p, err := e.BareSums(o)
	if err != nil {
		return nil, err
	}
	return wynn(p, ncycle), nil
}

func wynn(p []float64, ncycle int) []float64 {
	nmax := len(p)
	e0 := make([]float64, nmax)
	e1 := slices.Clone(p)
	e2 := make([]float64, nmax)
	for k := 1; k <= 2*ncycle; k++ {
		for i := 0; i < nmax-k; i++ {
			e2[i] = e0[i+1] + 1/(e1[i+1]-e1[i]+wynnEpsilon)
		}
		copy(e0, e1)
		copy(e1, e2)
		clear(e2)
	}
	return e1[:nmax-2*ncycle]
}
