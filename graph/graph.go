// Package graph implements the small undirected graphs induced by lattice
// clusters.
//
// Vertices are dense indices 0..Order()-1; each vertex remembers the lattice
// site it was created from. Adjacency rows are bitsets, so induced subgraphs,
// connectivity and the isomorphism search all reduce to word operations.
package graph

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/qbasis/combin"
)

var (
	// ErrVertexOutOfRange is returned when an edge names a vertex the graph does not have.
	ErrVertexOutOfRange = errors.New("graph: vertex out of range")

	// ErrSelfLoop is returned when an edge connects a vertex with itself.
	ErrSelfLoop = errors.New("graph: self loop")
)

// Adjacency is the neighbor table a graph is induced from.
type Adjacency interface {
	Row(site int) []int
}

// Graph is a simple undirected graph.
//
// A Graph is safe for concurrent reads once construction (AddEdge) is done.
type Graph struct {
	sites []int
	adj   []*bitset.BitSet
	edges int

	inv atomic.Pointer[invariants]
}

// New returns an edgeless graph with n vertices labelled 0..n-1.
func New(n int) *Graph {
	sites := make([]int, n)
	for i := range sites {
		sites[i] = i
	}
	return newWithSites(sites)
}

func newWithSites(sites []int) *Graph {
	adj := make([]*bitset.BitSet, len(sites))
	for i := range adj {
		adj[i] = bitset.New(uint(len(sites)))
	}
	return &Graph{sites: sites, adj: adj}
}

// Induced returns the subgraph induced by sites: one vertex per listed site, in
// order, and an edge wherever adj lists one site as a neighbor of another.
func Induced(sites []int, adj Adjacency) *Graph {
	own := make([]int, len(sites))
	copy(own, sites)
	g := newWithSites(own)

	index := make(map[int]int, len(own))
	for v, s := range own {
		index[s] = v
	}
	for u, s := range own {
		for _, t := range adj.Row(s) {
			if t < 0 {
				continue
			}
			if v, ok := index[t]; ok && v != u {
				g.link(u, v)
			}
		}
	}
	return g
}

// FromMask returns the subgraph induced by the set bits of mask.
func FromMask[W combin.Word](mask W, adj Adjacency) *Graph {
	return Induced(Sites(mask), adj)
}

// Sites returns the positions of the set bits of mask in ascending order.
func Sites[W combin.Word](mask W) []int {
	out := make([]int, 0, combin.Width[W]())
	for i := 0; mask != 0; i++ {
		if mask&1 == 1 {
			out = append(out, i)
		}
		mask >>= 1
	}
	return out
}

// AddEdge connects u and v. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(u, v int) error {
	if u < 0 || v < 0 || u >= g.Order() || v >= g.Order() {
		return fmt.Errorf("%w: (%d, %d) in graph of order %d", ErrVertexOutOfRange, u, v, g.Order())
	}
	if u == v {
		return fmt.Errorf("%w: %d", ErrSelfLoop, u)
	}
	g.link(u, v)
	return nil
}

func (g *Graph) link(u, v int) {
	if g.adj[u].Test(uint(v)) {
		return
	}
	g.adj[u].Set(uint(v))
	g.adj[v].Set(uint(u))
	g.edges++
	g.inv.Store(nil)
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v int) bool {
	if u < 0 || v < 0 || u >= g.Order() || v >= g.Order() {
		return false
	}
	return g.adj[u].Test(uint(v))
}

// Order returns the number of vertices.
func (g *Graph) Order() int { return len(g.sites) }

// Size returns the number of edges.
func (g *Graph) Size() int { return g.edges }

// Degree returns the number of neighbors of u.
func (g *Graph) Degree(u int) int { return int(g.adj[u].Count()) }

// Neighbors returns the neighbors of u in ascending order.
func (g *Graph) Neighbors(u int) []int {
	out := make([]int, 0, g.Degree(u))
	for v, ok := g.adj[u].NextSet(0); ok; v, ok = g.adj[u].NextSet(v + 1) {
		out = append(out, int(v))
	}
	return out
}

// Site returns the lattice site vertex u was created from.
func (g *Graph) Site(u int) int { return g.sites[u] }

// Sites returns the lattice site of every vertex.
func (g *Graph) Sites() []int {
	out := make([]int, len(g.sites))
	copy(out, g.sites)
	return out
}

// Edges returns every edge once as (u, v) with u < v, sorted.
func (g *Graph) Edges() [][2]int {
	out := make([][2]int, 0, g.edges)
	for u := range g.adj {
		for v, ok := g.adj[u].NextSet(uint(u + 1)); ok; v, ok = g.adj[u].NextSet(v + 1) {
			out = append(out, [2]int{u, int(v)})
		}
	}
	return out
}

// Connected reports whether every vertex is reachable from vertex 0.
// The empty graph is not connected.
func (g *Graph) Connected() bool {
	n := g.Order()
	if n == 0 {
		return false
	}
	visited := bitset.New(uint(n))
	stack := make([]uint, 0, n)
	stack = append(stack, 0)
	visited.Set(0)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for v, ok := g.adj[u].NextSet(0); ok; v, ok = g.adj[u].NextSet(v + 1) {
			if !visited.Test(v) {
				visited.Set(v)
				stack = append(stack, v)
			}
		}
	}
	return int(visited.Count()) == n
}
