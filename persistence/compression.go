package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the block codec of a payload.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	// CompressionLZ4 is fast and suits artifacts that are reloaded often.
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD trades speed for ratio.
	CompressionZSTD CompressionType = 2
)

// DefaultBlockSize is the uncompressed size of a payload block.
const DefaultBlockSize = 256 * 1024

// block header: [UncompressedSize uint32][CompressedSize uint32].
// CompressedSize 0 marks a block stored raw.
const blockHeaderSize = 8

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" and "zstd" to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func compress(data []byte, ct CompressionType) ([]byte, error) {
	switch ct {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, nil
	}
}

func decompress(src []byte, size uint32, ct CompressionType) ([]byte, error) {
	dst := make([]byte, size)
	switch ct {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: lz4 block inflated to %d, want %d", ErrCorrupt, n, size)
		}
		return dst, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("%w: zstd block inflated to %d, want %d", ErrCorrupt, len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed block without codec", ErrCorrupt)
	}
}

// BlockWriter splits a stream into blocks and writes each one compressed.
// Blocks that do not shrink below 90% are stored raw.
type BlockWriter struct {
	w         io.Writer
	ct        CompressionType
	blockSize int
	buf       *bytes.Buffer
	written   int64
}

// NewBlockWriter creates a BlockWriter. blockSize <= 0 selects DefaultBlockSize.
func NewBlockWriter(w io.Writer, ct CompressionType, blockSize int) *BlockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &BlockWriter{
		w:         w,
		ct:        ct,
		blockSize: blockSize,
		buf:       bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

// Write buffers p, flushing full blocks.
func (c *BlockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buf.Len()
		if space == 0 {
			if err := c.Flush(); err != nil {
				return total, err
			}
			space = c.blockSize
		}
		n, _ := c.buf.Write(p[:min(space, len(p))])
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush writes the buffered partial block.
func (c *BlockWriter) Flush() error {
	if c.buf.Len() == 0 {
		return nil
	}
	raw := c.buf.Bytes()
	packed, err := compress(raw, c.ct)
	if err != nil {
		return err
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(raw)))
	body := raw
	if len(packed) > 0 && float64(len(packed)) <= float64(len(raw))*0.9 {
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
		body = packed
	}

	if _, err := c.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := c.w.Write(body); err != nil {
		return err
	}
	c.written += int64(blockHeaderSize + len(body))
	c.buf.Reset()
	return nil
}

// BytesWritten returns the stored bytes written so far.
func (c *BlockWriter) BytesWritten() int64 {
	return c.written
}

// DecompressAll inflates a whole block stream and checks it against rawSize.
func DecompressAll(data []byte, rawSize uint64, ct CompressionType) ([]byte, error) {
	out := make([]byte, 0, min(rawSize, uint64(len(data))*16))
	for off := 0; off < len(data); {
		if len(data)-off < blockHeaderSize {
			return nil, fmt.Errorf("%w: truncated block header at %d", ErrCorrupt, off)
		}
		usize := binary.LittleEndian.Uint32(data[off:])
		csize := binary.LittleEndian.Uint32(data[off+4:])
		off += blockHeaderSize

		n := int(usize)
		if csize != 0 {
			n = int(csize)
		}
		if len(data)-off < n {
			return nil, fmt.Errorf("%w: block at %d extends beyond payload", ErrCorrupt, off)
		}
		if uint64(len(out))+uint64(usize) > rawSize {
			return nil, fmt.Errorf("%w: payload inflates beyond %d bytes", ErrCorrupt, rawSize)
		}

		if csize == 0 {
			out = append(out, data[off:off+n]...)
		} else {
			block, err := decompress(data[off:off+n], usize, ct)
			if err != nil {
				return nil, err
			}
			out = append(out, block...)
		}
		off += n
	}
	if uint64(len(out)) != rawSize {
		return nil, fmt.Errorf("%w: payload inflated to %d bytes, want %d", ErrCorrupt, len(out), rawSize)
	}
	return out, nil
}
