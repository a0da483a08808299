package qbasis

import (
	"errors"
	"fmt"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/graph"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/persistence"
	"github.com/hupe1980/qbasis/resource"
	"github.com/hupe1980/qbasis/symmetry"
)

var (
	// ErrInsufficientMemory is returned when a basis does not fit its output
	// buffers or the scratch budget of the resource controller.
	ErrInsufficientMemory = errors.New("insufficient memory")

	// ErrInvalidArgument is returned for malformed engines, lattices, orders
	// and buffer sizes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptArtifact is returned when a stored artifact fails validation.
	ErrCorruptArtifact = errors.New("corrupt artifact")
)

// ErrBufferMismatch indicates an output buffer of the wrong length.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrBufferMismatch struct {
	Buffer string
	Want   int
	Got    int
	cause  error
}

func (e *ErrBufferMismatch) Error() string {
	return fmt.Sprintf("buffer %s: want length %d, got %d", e.Buffer, e.Want, e.Got)
}

func (e *ErrBufferMismatch) Unwrap() error { return e.cause }

// Is lets errors.Is(err, ErrInvalidArgument) match buffer mismatches.
func (e *ErrBufferMismatch) Is(target error) bool { return target == ErrInvalidArgument }

var invalidArgument = []error{
	basis.ErrInvalidMax,
	symmetry.ErrTooManyGenerators,
	symmetry.ErrInvalidMap,
	symmetry.ErrGroupElementCapacity,
	lattice.ErrInvalidNeighborList,
	graph.ErrVertexOutOfRange,
	graph.ErrSelfLoop,
	nlce.ErrStateWidth,
	nlce.ErrInvalidOrder,
	nlce.ErrObservableLength,
	nlce.ErrInvalidCycles,
	nlce.ErrClusterIndex,
	nlce.ErrMissingEngine,
	nlce.ErrClusterSites,
	persistence.ErrLengthMismatch,
	persistence.ErrStateWidth,
	persistence.ErrNormKind,
	persistence.ErrKindMismatch,
}

var corruptArtifact = []error{
	persistence.ErrCorrupt,
	persistence.ErrInvalidMagic,
	persistence.ErrInvalidVersion,
	persistence.ErrUnknownCodec,
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, basis.ErrInsufficientMemory) || errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrInsufficientMemory, err)
	}

	var bm *basis.ErrBufferMismatch
	if errors.As(err, &bm) {
		return &ErrBufferMismatch{Buffer: bm.Buffer, Want: bm.Want, Got: bm.Got, cause: err}
	}

	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}
	for _, target := range corruptArtifact {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
		}
	}

	return err
}
