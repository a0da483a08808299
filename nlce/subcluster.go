package nlce

import (
	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/graph"
	"github.com/hupe1980/qbasis/symmetry"
)

// Subclusters counts the embeddings of size-k topologies in the cluster made
// of sites. Every k-subset of sites that induces a connected graph is matched
// against topologies and counted under the State of its class. Connected
// subsets without a matching class are not counted.
func Subclusters[S symmetry.State](sites []int, k int, adj graph.Adjacency, topologies []*Topology[S]) map[S]int {
	counts := countSubclusters(sites, k, adj, topologies)
	out := make(map[S]int, len(counts))
	for i, n := range counts {
		if n > 0 {
			out[topologies[i].State] += n
		}
	}
	return out
}

// countSubclusters returns the embedding count per topology index.
func countSubclusters[S symmetry.State](sites []int, k int, adj graph.Adjacency, topologies []*Topology[S]) []int {
	counts := make([]int, len(topologies))
	subset := make([]int, 0, k)
	for mask := range combin.Combinations(len(sites), k) {
		subset = subset[:0]
		for _, idx := range graph.Sites(mask) {
			subset = append(subset, sites[idx])
		}
		g := graph.Induced(subset, adj)
		if !g.Connected() {
			continue
		}
		if i := matchTopology(topologies, g); i >= 0 {
			counts[i]++
		}
	}
	return counts
}
