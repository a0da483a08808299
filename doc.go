// Package qbasis builds symmetry-reduced many-body bases and numerical linked
// cluster expansions (NLCE).
//
// # Bases
//
// A basis is the sorted list of representative states of a symmetry sector
// together with their norms. The symmetry group is supplied as a
// symmetry.Engine; symmetry.Permutation builds one from lattice site maps:
//
//	tr := symmetry.Generator{Map: lattice.ChainTranslation(16), Q: 0}
//	e, _ := symmetry.NewPermutation[uint32](16, tr)
//
//	states := make([]uint32, 1<<12)
//	norms := make([]int64, 1<<12)
//	start := combin.FirstPcon[uint32](8)
//	n, err := qbasis.MakeBasisPcon(ctx, e, start, qbasis.PconCandidates(16, 8), states, norms)
//	// states[:n], norms[:n] is the half-filling, zero-momentum sector.
//
// Buffers are owned by the caller. When the accepted states do not fit, the
// call returns -1 and ErrInsufficientMemory and the buffers hold no partial
// result.
//
// # Cluster expansions
//
// NewExpansion grows every connected cluster of a lattice up to an order,
// classifies clusters by graph topology and counts embedded subclusters:
//
//	exp, err := qbasis.NewExpansion(ctx, nlce.Config[uint32]{
//	    Order:       4,
//	    Lattice:     nl,
//	    Full:        full,
//	    Point:       point,
//	    Translation: translation,
//	})
//	sums, err := exp.BareSums(observable)
//
// # Artifacts
//
// SaveBasis and SaveExpansion store results in any blobstore.BlobStore
// (memory, local disk, MinIO, S3); LoadBasis and LoadExpansion read them back.
//
// # Observability
//
// WithLogger attaches a structured Logger and WithMetricsCollector receives
// per-call measurements. See metrics/prometheus for a Prometheus collector.
package qbasis
