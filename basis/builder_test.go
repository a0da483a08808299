package basis

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbasis/combin"
	"github.com/hupe1980/qbasis/resource"
	"github.com/hupe1980/qbasis/symmetry"
	"github.com/hupe1980/qbasis/testutil"
)

func ptr(v int) *int { return &v }

func chain(t testing.TB, l, q int, p *int) *symmetry.Permutation[uint32] {
	t.Helper()
	e, err := testutil.ChainEngine[uint32](l, q, p, nil)
	require.NoError(t, err)
	return e
}

func toInt64[N Norm](n []N) []int64 {
	out := make([]int64, len(n))
	for i, v := range n {
		out[i] = int64(v)
	}
	return out
}

func TestMake_Completeness(t *testing.T) {
	e := chain(t, 4, 0, nil)
	wantStates, wantNorms := testutil.ReferenceBasis[uint32](e, 0, false, 16)
	// 0000, 0001, 0011, 0101, 0111, 1111
	require.Equal(t, []uint32{0b0000, 0b0001, 0b0011, 0b0101, 0b0111, 0b1111}, wantStates)

	for _, d := range []Dispatch{DispatchSequential, DispatchParallel} {
		for _, threads := range []int{1, 2, 8} {
			basis := make([]uint32, 16)
			n := make([]uint16, 16)
			ns, err := Make(context.Background(), e, 16, basis, n, WithThreads(threads), WithDispatch(d))
			require.NoError(t, err)
			require.Equal(t, len(wantStates), ns)
			assert.Equal(t, wantStates, basis[:ns])
			assert.Equal(t, wantNorms, toInt64(n[:ns]))
		}
	}
}

func TestMakePcon_Determinism(t *testing.T) {
	const l, np = 14, 7
	e := chain(t, l, 0, ptr(0))
	max := testutil.PconCount(l, np)
	start := combin.FirstPcon[uint32](np)

	refStates, refNorms := testutil.ReferenceBasis[uint32](e, start, true, max)
	require.NotEmpty(t, refStates)

	for _, threads := range []int{1, 2, 3, 8} {
		basis := make([]uint32, len(refStates))
		n := make([]float64, len(refStates))
		ns, err := MakePcon(context.Background(), e, start, max, basis, n,
			WithThreads(threads), WithDispatch(DispatchParallel))
		require.NoError(t, err, "threads=%d", threads)
		require.Equal(t, len(refStates), ns)
		assert.Equal(t, refStates, basis)
		assert.Equal(t, refNorms, toInt64(n))
	}
}

func TestMake_SortedValid(t *testing.T) {
	e := chain(t, 12, 3, nil)
	basis := make([]uint32, 1<<12)
	n := make([]int32, 1<<12)
	ns, err := Make(context.Background(), e, 1<<12, basis, n, WithThreads(4))
	require.NoError(t, err)
	require.Positive(t, ns)

	for i := 0; i < ns; i++ {
		if i > 0 {
			require.Less(t, basis[i-1], basis[i])
		}
		w, ok := symmetry.Truncate(e.CheckState(basis[i]))
		require.True(t, ok)
		require.Equal(t, w, int64(n[i]))
	}
}

func TestMake_InsufficientMemory(t *testing.T) {
	e := chain(t, 10, 0, nil)
	want, _ := testutil.ReferenceBasis[uint32](e, 0, false, 1<<10)

	for _, d := range []Dispatch{DispatchSequential, DispatchParallel} {
		basis := make([]uint32, len(want)-1)
		n := make([]uint8, len(want)-1)
		ns, err := Make(context.Background(), e, 1<<10, basis, n, WithThreads(4), WithDispatch(d))
		assert.Equal(t, -1, ns)
		assert.ErrorIs(t, err, ErrInsufficientMemory)
	}

	// The smaller of the two buffers bounds the capacity.
	basis := make([]uint32, len(want))
	n := make([]uint8, len(want)-1)
	ns, err := Make(context.Background(), e, 1<<10, basis, n, WithDispatch(DispatchSequential))
	assert.Equal(t, -1, ns)
	assert.ErrorIs(t, err, ErrInsufficientMemory)

	// Exact capacity succeeds.
	n = make([]uint8, len(want))
	ns, err = Make(context.Background(), e, 1<<10, basis, n, WithThreads(4), WithDispatch(DispatchParallel))
	require.NoError(t, err)
	assert.Equal(t, len(want), ns)
}

func TestMake_ScratchBudget(t *testing.T) {
	e := chain(t, 10, 0, nil)
	rc := resource.NewController(resource.Config{ScratchLimitBytes: 16})

	basis := make([]uint32, 1<<10)
	n := make([]uint32, 1<<10)
	ns, err := Make(context.Background(), e, 1<<10, basis, n,
		WithThreads(4), WithDispatch(DispatchParallel), WithResourceController(rc))
	assert.Equal(t, -1, ns)
	assert.ErrorIs(t, err, ErrInsufficientMemory)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.ScratchInUse())

	rc = resource.NewController(resource.Config{ScratchLimitBytes: 1 << 20, MaxWorkers: 2})
	ns, err = Make(context.Background(), e, 1<<10, basis, n,
		WithThreads(4), WithDispatch(DispatchParallel), WithResourceController(rc))
	require.NoError(t, err)
	assert.Positive(t, ns)
	assert.Zero(t, rc.ScratchInUse())
	assert.Positive(t, rc.ScratchPeak())
}

func TestMake_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		engine   symmetry.Engine[uint32]
		threads  int
		max      uint64
		dispatch Dispatch
		parallel bool
	}{
		{"Symmetric", chain(t, 8, 0, nil), 4, 256, DispatchAuto, true},
		{"SingleThread", chain(t, 8, 0, nil), 1, 256, DispatchAuto, false},
		{"TinySearch", chain(t, 8, 0, nil), 4, 4, DispatchAuto, false},
		{"TrivialGroup", symmetry.Identity[uint32]{}, 4, 256, DispatchAuto, false},
		{"ForcedParallel", symmetry.Identity[uint32]{}, 4, 256, DispatchParallel, true},
		{"ForcedSequential", chain(t, 8, 0, nil), 4, 256, DispatchSequential, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Stats
			basis := make([]uint32, 256)
			n := make([]uint32, 256)
			ns, err := Make(context.Background(), tt.engine, tt.max, basis, n,
				WithThreads(tt.threads), WithDispatch(tt.dispatch), WithObserver(func(s Stats) { got = s }))
			require.NoError(t, err)
			assert.Equal(t, tt.parallel, got.Parallel)
			assert.Equal(t, ns, got.Accepted)
			assert.Equal(t, tt.max, got.Tested)
			assert.Equal(t, "full", got.Kind)
		})
	}
}

func TestMake_InvalidMax(t *testing.T) {
	basis := make([]uint8, 512)
	n := make([]uint8, 512)
	ns, err := Make[uint8](context.Background(), symmetry.Identity[uint8]{}, 257, basis, n)
	assert.Equal(t, -1, ns)
	assert.ErrorIs(t, err, ErrInvalidMax)

	ns, err = Make[uint8](context.Background(), symmetry.Identity[uint8]{}, 256, basis, n)
	require.NoError(t, err)
	assert.Equal(t, 256, ns)
}

func TestMakePcon_PastLastCombination(t *testing.T) {
	ctx := context.Background()
	e := symmetry.Identity[uint8]{}
	basis := make([]uint8, 64)
	n := make([]uint8, 64)

	for _, d := range []Dispatch{DispatchSequential, DispatchParallel} {
		for _, threads := range []int{1, 3, 8} {
			opts := []Option{WithThreads(threads), WithDispatch(d)}

			ns, err := MakePcon[uint8](ctx, e, 0b11, 28, basis, n, opts...)
			require.NoError(t, err)
			require.Equal(t, 28, ns)
			assert.True(t, slices.IsSorted(basis[:ns]))
			assert.Equal(t, uint8(0b11000000), basis[ns-1])

			for _, max := range []uint64{29, 40} {
				ns, err = MakePcon[uint8](ctx, e, 0b11, max, basis, n, opts...)
				assert.Equal(t, -1, ns, "max=%d threads=%d", max, threads)
				assert.ErrorIs(t, err, ErrInvalidMax)
			}

			ns, err = MakePcon[uint8](ctx, e, 0b11000000, 2, basis, n, opts...)
			assert.Equal(t, -1, ns)
			assert.ErrorIs(t, err, ErrInvalidMax)

			ns, err = MakePcon[uint8](ctx, e, 0, 1, basis, n, opts...)
			require.NoError(t, err)
			assert.Equal(t, 1, ns)
			_, err = MakePcon[uint8](ctx, e, 0, 2, basis, n, opts...)
			assert.ErrorIs(t, err, ErrInvalidMax)
		}
	}
}

func TestMake_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := chain(t, 8, 0, nil)
	basis := make([]uint32, 256)
	n := make([]uint32, 256)
	for _, d := range []Dispatch{DispatchSequential, DispatchParallel} {
		ns, err := Make(ctx, e, 256, basis, n, WithThreads(2), WithDispatch(d))
		assert.Equal(t, -1, ns)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestMake_FloatNorms(t *testing.T) {
	e := chain(t, 6, 0, ptr(0))
	basis := make([]uint32, 64)
	n := make([]float32, 64)
	ns, err := Make(context.Background(), e, 64, basis, n, WithDispatch(DispatchSequential))
	require.NoError(t, err)
	for _, w := range n[:ns] {
		assert.False(t, math.IsNaN(float64(w)))
		assert.GreaterOrEqual(t, w, float32(1))
	}
}
