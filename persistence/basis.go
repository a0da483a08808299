package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/symmetry"
)

const normSize = 8

func normKind[N basis.Norm]() NormKind {
	if N(1)/2 != 0 {
		return NormFloat64
	}
	return NormInt64
}

// SaveBasis writes states and their norms to name. Norms are stored as int64
// or float64 depending on N.
func SaveBasis[S symmetry.State, N basis.Norm](ctx context.Context, store blobstore.BlobStore, name string, states []S, norms []N, opts ...Option) error {
	if len(states) != len(norms) {
		return fmt.Errorf("%w: %d states, %d norms", ErrLengthMismatch, len(states), len(norms))
	}
	o := applyOptions(opts)

	width := combin.Width[S]() / 8
	kind := normKind[N]()
	raw := make([]byte, 0, len(states)*(width+normSize))
	for _, s := range states {
		raw = appendState(raw, uint64(s), width)
	}
	for _, n := range norms {
		if kind == NormFloat64 {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(float64(n)))
		} else {
			raw = binary.LittleEndian.AppendUint64(raw, uint64(int64(n)))
		}
	}

	h := &FileHeader{
		Kind:       KindBasis,
		StateWidth: uint8(width),
		NormKind:   kind,
		Count:      uint64(len(states)),
	}
	return writeArtifact(ctx, store, name, h, raw, o)
}

// LoadBasis reads a basis written by SaveBasis. S must have the width the
// basis was saved with, and N must be an integer type for integer norms or a
// float type for float norms.
func LoadBasis[S symmetry.State, N basis.Norm](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) ([]S, []N, error) {
	o := applyOptions(opts)

	h, raw, err := readArtifact(ctx, store, name, KindBasis, o)
	if err != nil {
		return nil, nil, err
	}

	width := combin.Width[S]() / 8
	if int(h.StateWidth) != width {
		return nil, nil, fmt.Errorf("%w: stored %d bytes, requested %d", ErrStateWidth, h.StateWidth, width)
	}
	if h.NormKind != normKind[N]() {
		return nil, nil, fmt.Errorf("%w: stored %d, requested %d", ErrNormKind, h.NormKind, normKind[N]())
	}
	if uint64(len(raw)) != h.Count*uint64(width+normSize) {
		return nil, nil, fmt.Errorf("%w: %d payload bytes for %d states", ErrCorrupt, len(raw), h.Count)
	}

	count := int(h.Count)
	states := make([]S, count)
	for i := range states {
		states[i] = S(readState(raw[i*width:], width))
	}
	raw = raw[count*width:]
	norms := make([]N, count)
	for i := range norms {
		bits := binary.LittleEndian.Uint64(raw[i*normSize:])
		if h.NormKind == NormFloat64 {
			norms[i] = N(math.Float64frombits(bits))
		} else {
			norms[i] = N(int64(bits))
		}
	}
	return states, norms, nil
}

func appendState(b []byte, s uint64, width int) []byte {
	switch width {
	case 1:
		return append(b, byte(s))
	case 2:
		return binary.LittleEndian.AppendUint16(b, uint16(s))
	case 4:
		return binary.LittleEndian.AppendUint32(b, uint32(s))
	default:
		return binary.LittleEndian.AppendUint64(b, s)
	}
}

func readState(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
