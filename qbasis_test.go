package qbasis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbasis/basis"
	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/lattice"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/persistence"
	"github.com/hupe1980/qbasis/resource"
	"github.com/hupe1980/qbasis/symmetry"
	"github.com/hupe1980/qbasis/testutil"
)

func chain(t testing.TB, l, q int) *symmetry.Permutation[uint32] {
	t.Helper()
	e, err := testutil.ChainEngine[uint32](l, q, nil, nil)
	require.NoError(t, err)
	return e
}

func chainExpansionConfig(t testing.TB, order int) nlce.Config[uint32] {
	t.Helper()
	l := 2*order + 2
	nl, err := lattice.Chain(l, true)
	require.NoError(t, err)
	tr, p := lattice.ChainTranslation(l), lattice.ChainReflection(l)
	full, err := symmetry.NewPermutation[uint32](l, symmetry.Generator{Map: p}, symmetry.Generator{Map: tr})
	require.NoError(t, err)
	point, err := symmetry.NewPermutation[uint32](l, symmetry.Generator{Map: p})
	require.NoError(t, err)
	trans, err := symmetry.NewPermutation[uint32](l, symmetry.Generator{Map: tr})
	require.NoError(t, err)
	return nlce.Config[uint32]{Order: order, Lattice: nl, Full: full, Point: point, Translation: trans}
}

func TestPconCandidates(t *testing.T) {
	assert.Equal(t, uint64(6), PconCandidates(4, 2))
	assert.Equal(t, uint64(12870), PconCandidates(16, 8))
	assert.Equal(t, uint64(1), PconCandidates(10, 0))
}

func TestMakeBasisPcon(t *testing.T) {
	ctx := context.Background()
	const l, np = 12, 6
	max := PconCandidates(l, np)

	for _, q := range []int{0, 1, 6} {
		for _, force := range []Option{WithForceSequential(), WithForceParallel()} {
			e := chain(t, l, q)
			wantStates, wantNorms := testutil.ReferenceBasis[uint32](e, combin.FirstPcon[uint32](np), true, max)

			states := make([]uint32, max)
			norms := make([]int64, max)
			n, err := MakeBasisPcon(ctx, e, combin.FirstPcon[uint32](np), max, states, norms, WithThreads(4), force)
			require.NoError(t, err)
			require.Equal(t, len(wantStates), n, "q=%d", q)
			assert.Equal(t, wantStates, states[:n])
			assert.Equal(t, wantNorms, norms[:n])
		}
	}
}

func TestMakeBasis_FloatNorms(t *testing.T) {
	e := chain(t, 8, 0)
	want, wantNorms := testutil.ReferenceBasis[uint32](e, 0, false, 256)

	states := make([]uint32, 256)
	norms := make([]float64, 256)
	n, err := MakeBasis(context.Background(), e, 256, states, norms)
	require.NoError(t, err)
	require.Equal(t, len(want), n)
	assert.Equal(t, want, states[:n])
	for i, w := range wantNorms {
		assert.InDelta(t, float64(w), norms[i], 0)
	}
}

func TestMakeBasis_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("InsufficientMemory", func(t *testing.T) {
		e := chain(t, 8, 0)
		states := make([]uint32, 3)
		norms := make([]int64, 3)
		n, err := MakeBasis(ctx, e, 256, states, norms)
		assert.Equal(t, -1, n)
		assert.ErrorIs(t, err, ErrInsufficientMemory)
		assert.ErrorIs(t, err, basis.ErrInsufficientMemory)
	})

	t.Run("InvalidMax", func(t *testing.T) {
		e, err := testutil.ChainEngine[uint8](4, 0, nil, nil)
		require.NoError(t, err)
		n, err := MakeBasis(ctx, e, 300, make([]uint8, 16), make([]int64, 16))
		assert.Equal(t, -1, n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("PconPastLastCombination", func(t *testing.T) {
		e, err := testutil.ChainEngine[uint8](8, 0, nil, nil)
		require.NoError(t, err)
		max := PconCandidates(8, 2)
		states := make([]uint8, 64)
		norms := make([]int64, 64)
		_, err = MakeBasisPcon(ctx, e, combin.FirstPcon[uint8](2), max, states, norms)
		require.NoError(t, err)

		n, err := MakeBasisPcon(ctx, e, combin.FirstPcon[uint8](2), max+1, states, norms)
		assert.Equal(t, -1, n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		e := chain(t, 8, 0)
		n, err := MakeBasis(cctx, e, 256, make([]uint32, 256), make([]int64, 256), WithForceSequential())
		assert.Equal(t, -1, n)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMakeBasis_Metrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	e := chain(t, 8, 0)
	states := make([]uint32, 256)
	norms := make([]int64, 256)

	n, err := MakeBasis(context.Background(), e, 256, states, norms, WithMetricsCollector(mc))
	require.NoError(t, err)
	_, err = MakeBasis(context.Background(), e, 256, states[:1], norms[:1], WithMetricsCollector(mc))
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.BuildCount)
	assert.Equal(t, int64(1), stats.BuildErrors)
	assert.Equal(t, uint64(512), stats.StatesTested)
	assert.Equal(t, int64(n), stats.StatesAccepted)
}

func TestMakeBasis_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := chain(t, 6, 0)
	_, err := MakeBasis(context.Background(), e, 64, make([]uint32, 64), make([]int64, 64), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"kind":"full"`)
}

func TestNormalizeAndRepresentatives(t *testing.T) {
	ctx := context.Background()
	e := chain(t, 6, 0)

	states := []uint32{1, 2, 4, 3, 6, 21}
	norms := make([]int64, len(states))
	require.NoError(t, Normalize(ctx, e, states, norms))
	for i, s := range states {
		want, _ := symmetry.Truncate(e.CheckState(s))
		assert.Equal(t, want, norms[i], "state %d", s)
	}

	reps := make([]uint32, len(states))
	g := make([]int, len(states)*e.NT())
	signs := make([]int, len(states))
	require.NoError(t, Representatives(ctx, e, states, reps, g, signs))
	assert.Equal(t, []uint32{1, 1, 1, 3, 3, 21}, reps)

	err := Representatives(ctx, e, states, reps[:2], g, signs)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	var bm *ErrBufferMismatch
	require.ErrorAs(t, err, &bm)
	assert.Equal(t, len(states), bm.Want)
}

func TestNewExpansion_Metrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	exp, err := NewExpansion(context.Background(), chainExpansionConfig(t, 4), WithMetricsCollector(mc), WithThreads(2))
	require.NoError(t, err)
	require.Equal(t, 4, exp.Len())

	stats := mc.GetStats()
	assert.Equal(t, int64(4), stats.SubclusterRounds)
	assert.Equal(t, int64(3), stats.GrowRounds)
	assert.Equal(t, int64(3), stats.ClustersGrown)
	assert.Equal(t, int64(4), stats.TopologiesFound)
	assert.Equal(t, int64(16), stats.EmbeddingsCount)
	assert.Equal(t, int64(4), stats.MaxOrder)

	_, err = NewExpansion(context.Background(), nlce.Config[uint32]{Order: 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestArtifacts(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mc := &BasicMetricsCollector{}

	e := chain(t, 10, 0)
	max := PconCandidates(10, 5)
	states := make([]uint32, max)
	norms := make([]int64, max)
	n, err := MakeBasisPcon(ctx, e, combin.FirstPcon[uint32](5), max, states, norms)
	require.NoError(t, err)

	require.NoError(t, SaveBasis(ctx, store, "chain10/basis", states[:n], norms[:n],
		WithCompression(persistence.CompressionZSTD), WithMetricsCollector(mc)))
	gotStates, gotNorms, err := LoadBasis[uint32, int64](ctx, store, "chain10/basis")
	require.NoError(t, err)
	assert.Equal(t, states[:n], gotStates)
	assert.Equal(t, norms[:n], gotNorms)

	_, _, err = LoadBasis[uint64, int64](ctx, store, "chain10/basis")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	exp, err := NewExpansion(ctx, chainExpansionConfig(t, 3))
	require.NoError(t, err)
	require.NoError(t, SaveExpansion(ctx, store, "chain/nlce", exp, WithMetricsCollector(mc)))
	got, err := LoadExpansion(ctx, store, "chain/nlce")
	require.NoError(t, err)
	assert.Equal(t, exp.Snapshot(), got.Snapshot())

	_, err = LoadExpansion(ctx, store, "chain10/basis")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, store.Put(ctx, "junk", bytes.Repeat([]byte{0xAB}, persistence.HeaderSize)))
	_, err = LoadExpansion(ctx, store, "junk")
	assert.ErrorIs(t, err, ErrCorruptArtifact)

	_, err = LoadExpansion(ctx, store, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.SaveCount)
	assert.Equal(t, int64(0), stats.SaveErrors)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	tests := []struct {
		err    error
		target error
	}{
		{basis.ErrInsufficientMemory, ErrInsufficientMemory},
		{fmt.Errorf("scratch: %w", resource.ErrMemoryLimitExceeded), ErrInsufficientMemory},
		{symmetry.ErrInvalidMap, ErrInvalidArgument},
		{nlce.ErrInvalidOrder, ErrInvalidArgument},
		{persistence.ErrStateWidth, ErrInvalidArgument},
		{&basis.ErrBufferMismatch{Buffer: "reps", Want: 3, Got: 1}, ErrInvalidArgument},
		{persistence.ErrInvalidMagic, ErrCorruptArtifact},
		{&persistence.ChecksumMismatchError{Expected: 1, Actual: 2}, ErrCorruptArtifact},
	}
	for _, tt := range tests {
		err := translateError(tt.err)
		assert.ErrorIs(t, err, tt.target, "%v", tt.err)
		assert.ErrorIs(t, err, tt.err)
	}

	other := errors.New("unrelated")
	assert.Same(t, other, translateError(other))
}
