package nlce

import (
	"fmt"
	"slices"
)

// Snapshot is the serializable form of an Expansion.
type Snapshot struct {
	Order    int       `json:"order"`
	Clusters []Cluster `json:"clusters"`
	Y        [][]Entry `json:"y"`
}

// Snapshot returns a deep copy of the expansion's catalog.
func (e *Expansion) Snapshot() Snapshot {
	snap := Snapshot{
		Order:    e.order,
		Clusters: make([]Cluster, len(e.clusters)),
		Y:        make([][]Entry, len(e.y)),
	}
	for i := range e.clusters {
		snap.Clusters[i], _ = e.Cluster(i)
		snap.Y[i] = slices.Clone(e.y[i])
	}
	return snap
}

// FromSnapshot restores an expansion. It checks that Y is strictly lower
// triangular and only links clusters of smaller order.
func FromSnapshot(snap Snapshot) (*Expansion, error) {
	if snap.Order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, snap.Order)
	}
	if len(snap.Y) != len(snap.Clusters) {
		return nil, fmt.Errorf("%w: %d rows for %d clusters", ErrObservableLength, len(snap.Y), len(snap.Clusters))
	}
	e := &Expansion{
		order:    snap.Order,
		clusters: make([]Cluster, len(snap.Clusters)),
		y:        make([][]Entry, len(snap.Y)),
	}
	for i, c := range snap.Clusters {
		if c.Order < 1 || c.Order > snap.Order || len(c.Sites) != c.Order {
			return nil, fmt.Errorf("%w: cluster %d has order %d with %d sites", ErrInvalidOrder, i, c.Order, len(c.Sites))
		}
		for _, ent := range snap.Y[i] {
			if ent.Col < 0 || ent.Col >= i || snap.Clusters[ent.Col].Order >= c.Order {
				return nil, fmt.Errorf("%w: entry (%d, %d)", ErrClusterIndex, i, ent.Col)
			}
		}
		c.Sites = slices.Clone(c.Sites)
		c.Edges = slices.Clone(c.Edges)
		e.clusters[i] = c
		e.y[i] = slices.Clone(snap.Y[i])
	}
	return e, nil
}
