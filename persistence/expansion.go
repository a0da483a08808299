package persistence

import (
	"context"

	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/nlce"
)

// SaveExpansion writes the cluster catalog of e to name using the configured codec.
func SaveExpansion(ctx context.Context, store blobstore.BlobStore, name string, e *nlce.Expansion, opts ...Option) error {
	o := applyOptions(opts)

	id, err := codecID(o.codec)
	if err != nil {
		return err
	}
	raw, err := o.codec.Marshal(e.Snapshot())
	if err != nil {
		return err
	}

	h := &FileHeader{
		Kind:  KindExpansion,
		Codec: id,
		Count: uint64(e.Len()),
	}
	return writeArtifact(ctx, store, name, h, raw, o)
}

// LoadExpansion reads an expansion written by SaveExpansion. The codec is
// taken from the header.
func LoadExpansion(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*nlce.Expansion, error) {
	o := applyOptions(opts)

	h, raw, err := readArtifact(ctx, store, name, KindExpansion, o)
	if err != nil {
		return nil, err
	}
	c, err := codecByID(h.Codec)
	if err != nil {
		return nil, err
	}

	var snap nlce.Snapshot
	if err := c.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return nlce.FromSnapshot(snap)
}
