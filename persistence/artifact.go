package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/internal/hash"
	"github.com/hupe1980/qbasis/resource"
)

// writeArtifact compresses raw, fills in the size and checksum fields of h
// and writes header and payload to name.
func writeArtifact(ctx context.Context, store blobstore.BlobStore, name string, h *FileHeader, raw []byte, o options) error {
	var payload bytes.Buffer
	bw := NewBlockWriter(&payload, o.compression, o.blockSize)
	if _, err := bw.Write(raw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	h.Compression = o.compression
	h.RawSize = uint64(len(raw))
	h.DataSize = uint64(payload.Len())
	h.Checksum = hash.CRC32C(payload.Bytes())

	var head bytes.Buffer
	if err := writeHeader(&head, h); err != nil {
		return err
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	w := resource.NewRateLimitedWriter(ctx, wb, o.rc)
	_, err = io.Copy(w, io.MultiReader(&head, &payload))
	if err == nil {
		err = wb.Sync()
	}
	if err != nil {
		if a, ok := wb.(blobstore.Abortable); ok {
			_ = a.Abort()
		} else {
			_ = wb.Close()
		}
		return fmt.Errorf("persistence: write %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("persistence: write %s: %w", name, err)
	}

	o.logger.DebugContext(ctx, "artifact written",
		"name", name,
		"kind", h.Kind.String(),
		"compression", h.Compression.String(),
		"raw_bytes", h.RawSize,
		"stored_bytes", h.DataSize,
	)
	return nil
}

// readArtifact loads name, validates its header against kind and returns the
// verified, decompressed payload.
func readArtifact(ctx context.Context, store blobstore.BlobStore, name string, kind Kind, o options) (*FileHeader, []byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer blob.Close()

	if blob.Size() < HeaderSize {
		return nil, nil, fmt.Errorf("%w: %s is %d bytes", ErrCorrupt, name, blob.Size())
	}

	var r io.Reader
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, nil, err
		}
		r = bytes.NewReader(data)
	} else {
		rc, err := blob.ReadRange(ctx, 0, blob.Size())
		if err != nil {
			return nil, nil, err
		}
		defer rc.Close()
		r = rc
	}
	r = resource.NewRateLimitedReader(ctx, r, o.rc)

	h, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if h.Kind != kind {
		return nil, nil, fmt.Errorf("%w: %s holds %s, want %s", ErrKindMismatch, name, h.Kind, kind)
	}
	if h.DataSize > uint64(blob.Size()-HeaderSize) {
		return nil, nil, fmt.Errorf("%w: payload of %d bytes in a %d byte blob", ErrCorrupt, h.DataSize, blob.Size())
	}

	stored := make([]byte, h.DataSize)
	cr := NewChecksumReader(r)
	if _, err := io.ReadFull(cr, stored); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
		}
		return nil, nil, err
	}
	if err := cr.Verify(h.Checksum); err != nil {
		return nil, nil, fmt.Errorf("persistence: %s: %w", name, err)
	}

	raw, err := DecompressAll(stored, h.RawSize, h.Compression)
	if err != nil {
		return nil, nil, err
	}

	o.logger.DebugContext(ctx, "artifact read",
		"name", name,
		"kind", h.Kind.String(),
		"compression", h.Compression.String(),
		"raw_bytes", h.RawSize,
	)
	return h, raw, nil
}
