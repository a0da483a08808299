package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/qbasis/codec"
)

const (
	// MagicNumber identifies qbasis artifacts (bytes "QBS1" in file order).
	MagicNumber = 0x31534251
	// Version is the current file format version.
	Version = 1

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 64
)

// Kind tells what an artifact holds.
type Kind uint8

const (
	KindBasis     Kind = 1
	KindExpansion Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindBasis:
		return "basis"
	case KindExpansion:
		return "expansion"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// NormKind is the on-disk representation of basis norms.
type NormKind uint8

const (
	NormNone    NormKind = 0
	NormInt64   NormKind = 1
	NormFloat64 NormKind = 2
)

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	ErrKindMismatch   = errors.New("persistence: unexpected artifact kind")
	ErrStateWidth     = errors.New("persistence: state width mismatch")
	ErrNormKind       = errors.New("persistence: norm kind mismatch")
	ErrLengthMismatch = errors.New("persistence: states and norms differ in length")
	ErrUnknownCodec   = errors.New("persistence: unknown codec")
	ErrCorrupt        = errors.New("persistence: corrupt payload")
)

// FileHeader is the fixed-size header at the start of every artifact.
type FileHeader struct {
	Magic       uint32
	Version     uint16
	Kind        Kind
	Compression CompressionType
	StateWidth  uint8 // bytes per state, 0 for expansions
	NormKind    NormKind
	Codec       uint8
	_           [1]byte
	Count       uint64 // states, or clusters of an expansion
	RawSize     uint64 // payload size after decompression
	DataSize    uint64 // stored payload size
	Checksum    uint32 // CRC32C of the stored payload
	_           [24]byte
}

var codecIDs = []string{"", codec.JSON{}.Name(), codec.GoJSON{}.Name()}

func codecID(c codec.Codec) (uint8, error) {
	for i, name := range codecIDs {
		if i > 0 && name == c.Name() {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownCodec, c.Name())
}

func codecByID(id uint8) (codec.Codec, error) {
	if id == 0 || int(id) >= len(codecIDs) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCodec, id)
	}
	c, _ := codec.ByName(codecIDs[id])
	return c, nil
}

func writeHeader(w io.Writer, h *FileHeader) error {
	h.Magic = MagicNumber
	h.Version = Version
	return binary.Write(w, binary.LittleEndian, h)
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	return &h, nil
}
