// Package symmetry defines the basis engine consumed by the basis builders and
// the cluster growth engine, together with two concrete engines.
//
// An Engine answers per-state questions about a symmetry group acting on
// integer-encoded configurations: is the state a representative and with what
// weight, what is its representative, and how does a single generator act on it.
// The builders never look inside the group; any lattice symmetry that can answer
// these questions plugs in unchanged.
package symmetry

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/qbasis/combin"
)

// MaxNT is the largest number of generators an engine may declare.
const MaxNT = 128

var (
	// ErrTooManyGenerators is returned when a group declares more than MaxNT generators.
	ErrTooManyGenerators = errors.New("symmetry: too many generators")

	// ErrInvalidMap is returned when a generator is not a valid site permutation.
	ErrInvalidMap = errors.New("symmetry: invalid site map")

	// ErrGroupElementCapacity is returned when a GroupElement is used with a
	// generator index beyond its declared length.
	ErrGroupElementCapacity = errors.New("symmetry: group element index out of range")
)

// State is an integer-encoded configuration. Bit i is the occupation or spin of site i.
type State = combin.Word

// Engine is the per-state symmetry interface.
//
// Implementations must be safe for concurrent use by multiple goroutines; the
// parallel builders call every method from many workers at once. Scratch space
// needed by an operation is owned by the call.
type Engine[S State] interface {
	// CheckState returns the normalization of s. NaN or a value whose integer
	// part is not positive means s is not a representative.
	CheckState(s S) float64

	// RefState returns the representative of s. g receives the power of every
	// generator that maps s onto it and sign is multiplied by the accumulated
	// reordering sign.
	RefState(s S, g *GroupElement, sign *int) S

	// RefStateLess is RefState without the group element output.
	RefStateLess(s S, sign *int) S

	// MapState applies generator gen once to s.
	MapState(s S, gen int, sign *int) S

	// NextStatePcon returns the successor of s with equal population count.
	NextStatePcon(s S) S

	// NT returns the number of generators.
	NT() int

	// Periods returns the period of every generator. len(Periods()) == NT().
	Periods() []int
}

// Truncate converts a normalization value to its stored integer weight.
// ok is false when norm is NaN, infinite or its integer part is not positive.
func Truncate(norm float64) (weight int64, ok bool) {
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		return 0, false
	}
	w := int64(norm)
	if w <= 0 {
		return 0, false
	}
	return w, true
}

// GroupElement holds one power per generator. Its length is fixed at
// construction and bounded by MaxNT.
type GroupElement struct {
	g []int
}

// NewGroupElement returns a zeroed element for nt generators.
func NewGroupElement(nt int) (*GroupElement, error) {
	if nt < 0 || nt > MaxNT {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyGenerators, nt, MaxNT)
	}
	return &GroupElement{g: make([]int, nt)}, nil
}

// Len returns the number of generators.
func (e *GroupElement) Len() int { return len(e.g) }

// At returns the power of generator i.
func (e *GroupElement) At(i int) int { return e.g[i] }

// Set stores the power of generator i.
func (e *GroupElement) Set(i, power int) error {
	if i < 0 || i >= len(e.g) {
		return fmt.Errorf("%w: %d (len %d)", ErrGroupElementCapacity, i, len(e.g))
	}
	e.g[i] = power
	return nil
}

// Reset zeroes every power.
func (e *GroupElement) Reset() {
	clear(e.g)
}

// Powers returns a copy of the powers.
func (e *GroupElement) Powers() []int {
	out := make([]int, len(e.g))
	copy(out, e.g)
	return out
}

// CopyTo writes the powers into dst and returns the number written.
func (e *GroupElement) CopyTo(dst []int) int {
	return copy(dst, e.g)
}
