package graph

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// traceDepth is the highest power k for which tr(A^k) is compared before the
// exact search. tr(A^2) is twice the edge count and tr(A^3) six times the
// triangle count; the higher powers count closed walks.
const traceDepth = 6

type invariants struct {
	degrees []int // sorted descending
	traces  [traceDepth]int64
	// vertex holds, per vertex, its degree and the sorted degrees of its neighbors.
	vertex [][]int
}

func (g *Graph) invariants() *invariants {
	if inv := g.inv.Load(); inv != nil {
		return inv
	}
	inv := g.computeInvariants()
	g.inv.Store(inv)
	return inv
}

func (g *Graph) computeInvariants() *invariants {
	n := g.Order()
	inv := &invariants{
		degrees: make([]int, n),
		vertex:  make([][]int, n),
	}
	for u := 0; u < n; u++ {
		inv.degrees[u] = g.Degree(u)
	}
	for u := 0; u < n; u++ {
		sig := []int{inv.degrees[u]}
		for _, v := range g.Neighbors(u) {
			sig = append(sig, inv.degrees[v])
		}
		slices.Sort(sig[1:])
		inv.vertex[u] = sig
	}
	slices.SortFunc(inv.degrees, func(a, b int) int { return b - a })

	inv.traces = g.traces()
	return inv
}

// traces returns tr(A^k) for k = 1..traceDepth.
func (g *Graph) traces() [traceDepth]int64 {
	var out [traceDepth]int64
	n := g.Order()
	if n == 0 {
		return out
	}

	power := make([][]int64, n)
	for i := range power {
		power[i] = make([]int64, n)
		power[i][i] = 1
	}
	next := make([][]int64, n)
	for i := range next {
		next[i] = make([]int64, n)
	}

	for k := 0; k < traceDepth; k++ {
		// next = power * A, using the sparse rows of A.
		for i := 0; i < n; i++ {
			clear(next[i])
			for j := 0; j < n; j++ {
				p := power[i][j]
				if p == 0 {
					continue
				}
				for v, ok := g.adj[j].NextSet(0); ok; v, ok = g.adj[j].NextSet(v + 1) {
					next[i][v] += p
				}
			}
		}
		power, next = next, power

		var tr int64
		for i := 0; i < n; i++ {
			tr += power[i][i]
		}
		out[k] = tr
	}
	return out
}

// Traces returns tr(A^k) for k = 1..6 of the adjacency matrix A.
func (g *Graph) Traces() []int64 {
	t := g.invariants().traces
	return t[:]
}

// Isomorphic reports whether a and b are equal up to a relabelling of vertices.
// Lattice sites are ignored.
func Isomorphic(a, b *Graph) bool {
	if a.Order() != b.Order() || a.Size() != b.Size() {
		return false
	}
	ia, ib := a.invariants(), b.invariants()
	if !slices.Equal(ia.degrees, ib.degrees) || ia.traces != ib.traces {
		return false
	}

	m := &matcher{
		a:     a,
		b:     b,
		ia:    ia,
		ib:    ib,
		order: searchOrder(a),
		mapAB: make([]int, a.Order()),
		used:  bitset.New(uint(b.Order())),
	}
	for i := range m.mapAB {
		m.mapAB[i] = -1
	}
	return m.match(0)
}

// IsomorphicTo is Isomorphic(g, other).
func (g *Graph) IsomorphicTo(other *Graph) bool {
	return Isomorphic(g, other)
}

type matcher struct {
	a, b   *Graph
	ia, ib *invariants
	order  []int
	mapAB  []int
	used   *bitset.BitSet
}

func (m *matcher) match(depth int) bool {
	if depth == len(m.order) {
		return true
	}
	u := m.order[depth]
	for v := 0; v < m.b.Order(); v++ {
		if m.used.Test(uint(v)) || !slices.Equal(m.ia.vertex[u], m.ib.vertex[v]) {
			continue
		}
		if !m.consistent(u, v) {
			continue
		}
		m.mapAB[u] = v
		m.used.Set(uint(v))
		if m.match(depth + 1) {
			return true
		}
		m.used.Clear(uint(v))
		m.mapAB[u] = -1
	}
	return false
}

// consistent checks u -> v against every vertex mapped so far.
func (m *matcher) consistent(u, v int) bool {
	for w, x := range m.mapAB {
		if x < 0 {
			continue
		}
		if m.a.adj[u].Test(uint(w)) != m.b.adj[v].Test(uint(x)) {
			return false
		}
	}
	return true
}

// searchOrder visits vertices in DFS order from the highest degree vertex of
// each component, so every vertex after the first of a component has a mapped
// neighbor.
func searchOrder(g *Graph) []int {
	n := g.Order()
	order := make([]int, 0, n)
	seen := bitset.New(uint(n))

	starts := make([]int, n)
	for i := range starts {
		starts[i] = i
	}
	slices.SortStableFunc(starts, func(x, y int) int { return g.Degree(y) - g.Degree(x) })

	for _, s := range starts {
		if seen.Test(uint(s)) {
			continue
		}
		stack := []int{s}
		seen.Set(uint(s))
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			order = append(order, u)
			for _, v := range g.Neighbors(u) {
				if !seen.Test(uint(v)) {
					seen.Set(uint(v))
					stack = append(stack, v)
				}
			}
		}
	}
	return order
}
