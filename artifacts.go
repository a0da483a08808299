package qbasis

import (
	"context"
	"time"

	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/persistence"
)

// SaveBasis stores a basis under name.
func SaveBasis[S State, N Norm](ctx context.Context, store blobstore.BlobStore, name string, states []S, norms []N, opts ...Option) error {
	o := applyOptions(opts)
	start := time.Now()
	err := persistence.SaveBasis(ctx, store, name, states, norms, o.persistenceOptions()...)
	o.metricsCollector.RecordSave(persistence.KindBasis.String(), time.Since(start), err)
	o.logger.LogSave(ctx, name, err)
	return translateError(err)
}

// LoadBasis reads a basis stored by SaveBasis.
func LoadBasis[S State, N Norm](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) ([]S, []N, error) {
	o := applyOptions(opts)
	states, norms, err := persistence.LoadBasis[S, N](ctx, store, name, o.persistenceOptions()...)
	o.logger.LogLoad(ctx, name, err)
	return states, norms, translateError(err)
}

// SaveExpansion stores the cluster catalog of e under name.
func SaveExpansion(ctx context.Context, store blobstore.BlobStore, name string, e *nlce.Expansion, opts ...Option) error {
	o := applyOptions(opts)
	start := time.Now()
	err := persistence.SaveExpansion(ctx, store, name, e, o.persistenceOptions()...)
	o.metricsCollector.RecordSave(persistence.KindExpansion.String(), time.Since(start), err)
	o.logger.LogSave(ctx, name, err)
	return translateError(err)
}

// LoadExpansion reads a catalog stored by SaveExpansion.
func LoadExpansion(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*nlce.Expansion, error) {
	o := applyOptions(opts)
	e, err := persistence.LoadExpansion(ctx, store, name, o.persistenceOptions()...)
	o.logger.LogLoad(ctx, name, err)
	return e, translateError(err)
}
