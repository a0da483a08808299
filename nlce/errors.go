package nlce

import "errors"

var (
	// ErrStateWidth is returned when the lattice has more sites than the state type has bits.
	ErrStateWidth = errors.New("nlce: lattice does not fit state width")

	// ErrInvalidOrder is returned for a non-positive expansion order.
	ErrInvalidOrder = errors.New("nlce: invalid order")

	// ErrObservableLength is returned when an observable does not have one value per cluster.
	ErrObservableLength = errors.New("nlce: observable length does not match cluster count")

	// ErrInvalidCycles is returned when a Wynn resummation asks for too many cycles.
	ErrInvalidCycles = errors.New("nlce: too many Wynn cycles for the expansion order")

	// ErrClusterIndex is returned for a cluster index out of range.
	ErrClusterIndex = errors.New("nlce: cluster index out of range")

	// ErrClusterSites is returned for a cluster with sites outside the lattice.
	ErrClusterSites = errors.New("nlce: cluster has sites outside the lattice")

	// ErrMissingEngine is returned when a configuration lacks a symmetry engine.
	ErrMissingEngine = errors.New("nlce: missing symmetry engine")
)
