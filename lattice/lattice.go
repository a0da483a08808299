// Package lattice describes lattice geometry: neighbor lists and the site maps of
// the lattice symmetries.
//
// A NeighborList is a flat row-major table with NNN slots per site. Negative
// entries pad rows of sites with fewer neighbors.
package lattice

import (
	"errors"
	"fmt"
)

// ErrInvalidNeighborList is returned for malformed neighbor tables.
var ErrInvalidNeighborList = errors.New("lattice: invalid neighbor list")

// NeighborList is an immutable neighbor table.
type NeighborList struct {
	nnn   int
	table []int
}

// NewNeighborList validates table and wraps it. The table is copied.
func NewNeighborList(nnn int, table []int) (*NeighborList, error) {
	if nnn <= 0 {
		return nil, fmt.Errorf("%w: %d slots per site", ErrInvalidNeighborList, nnn)
	}
	if len(table) == 0 || len(table)%nnn != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidNeighborList, len(table), nnn)
	}
	sites := len(table) / nnn
	for i, j := range table {
		if j >= sites {
			return nil, fmt.Errorf("%w: site %d lists neighbor %d of %d sites", ErrInvalidNeighborList, i/nnn, j, sites)
		}
	}
	t := make([]int, len(table))
	copy(t, table)
	return &NeighborList{nnn: nnn, table: t}, nil
}

// Sites returns the number of sites.
func (nl *NeighborList) Sites() int { return len(nl.table) / nl.nnn }

// NNN returns the number of neighbor slots per site.
func (nl *NeighborList) NNN() int { return nl.nnn }

// Row returns the neighbor slots of site i. The slice must not be modified.
func (nl *NeighborList) Row(i int) []int {
	return nl.table[i*nl.nnn : (i+1)*nl.nnn]
}

// Table returns a copy of the flat table.
func (nl *NeighborList) Table() []int {
	t := make([]int, len(nl.table))
	copy(t, nl.table)
	return t
}

// Adjacent reports whether j appears in the row of i.
func (nl *NeighborList) Adjacent(i, j int) bool {
	for _, k := range nl.Row(i) {
		if k == j {
			return true
		}
	}
	return false
}

// Bonds returns every undirected bond once, as (i, j) with i < j.
func (nl *NeighborList) Bonds() [][2]int {
	var out [][2]int
	for i := 0; i < nl.Sites(); i++ {
		for slot, j := range nl.Row(i) {
			if j <= i || duplicateSlot(nl.Row(i), slot) {
				continue
			}
			out = append(out, [2]int{i, j})
		}
	}
	return out
}

func duplicateSlot(row []int, slot int) bool {
	for _, k := range row[:slot] {
		if k == row[slot] {
			return true
		}
	}
	return false
}

// Chain returns the neighbor list of an L-site chain. Slot 0 is the right
// neighbor and slot 1 the left one.
func Chain(l int, periodic bool) (*NeighborList, error) {
	if l <= 0 {
		return nil, fmt.Errorf("%w: chain length %d", ErrInvalidNeighborList, l)
	}
	table := make([]int, 2*l)
	for i := 0; i < l; i++ {
		table[2*i] = step(i, 1, l, periodic)
		table[2*i+1] = step(i, -1, l, periodic)
	}
	return NewNeighborList(2, table)
}

// Square returns the neighbor list of an lx by ly square lattice with site
// index x + lx*y. Slots are +x, -x, +y, -y.
func Square(lx, ly int, periodic bool) (*NeighborList, error) {
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("%w: square lattice %dx%d", ErrInvalidNeighborList, lx, ly)
	}
	table := make([]int, 0, 4*lx*ly)
	for y := 0; y < ly; y++ {
		for x := 0; x < lx; x++ {
			i := x + lx*y
			table = append(table,
				site(step(x, 1, lx, periodic), y, lx, i),
				site(step(x, -1, lx, periodic), y, lx, i),
				site(x, step(y, 1, ly, periodic), lx, i),
				site(x, step(y, -1, ly, periodic), lx, i),
			)
		}
	}
	return NewNeighborList(4, table)
}

// step moves coordinate c by d. It returns -1 off an open edge.
func step(c, d, l int, periodic bool) int {
	n := c + d
	if n < 0 || n >= l {
		if !periodic {
			return -1
		}
		n = (n%l + l) % l
	}
	if n == c {
		return -1
	}
	return n
}

func site(x, y, lx, self int) int {
	if x < 0 || y < 0 {
		return -1
	}
	i := x + lx*y
	if i == self {
		return -1
	}
	return i
}
