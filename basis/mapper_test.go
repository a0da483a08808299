package basis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbasis/symmetry"
	"github.com/hupe1980/qbasis/testutil"
)

func randomStates(n, width int) []uint32 {
	rng := testutil.NewRNG(4711)
	raw := rng.States(n, width)
	out := make([]uint32, n)
	for i, s := range raw {
		out[i] = uint32(s)
	}
	return out
}

func TestNormalize(t *testing.T) {
	e := chain(t, 12, 0, ptr(0))
	states := randomStates(3*minChunk, 12)

	for _, threads := range []int{1, 4} {
		norms := make([]uint16, len(states))
		require.NoError(t, Normalize(context.Background(), e, states, norms, WithThreads(threads)))
		for i, s := range states {
			w, ok := symmetry.Truncate(e.CheckState(s))
			if !ok {
				w = 0
			}
			require.Equal(t, w, int64(norms[i]))
		}
	}

	var bm *ErrBufferMismatch
	err := Normalize(context.Background(), e, states, make([]uint16, 3))
	require.True(t, errors.As(err, &bm))
	assert.Equal(t, "norms", bm.Buffer)
	assert.Equal(t, len(states), bm.Want)
}

func TestRepresentatives_CallShapes(t *testing.T) {
	e := chain(t, 10, 0, ptr(0))
	nt := e.NT()
	states := randomStates(2*minChunk+17, 10)
	ctx := context.Background()

	plain := make([]uint32, len(states))
	require.NoError(t, Representatives(ctx, e, states, plain, nil, nil, WithThreads(4)))

	withG := make([]uint32, len(states))
	g := make([]int, len(states)*nt)
	require.NoError(t, Representatives(ctx, e, states, withG, g, nil, WithThreads(4)))

	withSign := make([]uint32, len(states))
	signs := make([]int, len(states))
	require.NoError(t, Representatives(ctx, e, states, withSign, nil, signs, WithThreads(1)))

	both := make([]uint32, len(states))
	g2 := make([]int, len(states)*nt)
	signs2 := make([]int, len(states))
	require.NoError(t, Representatives(ctx, e, states, both, g2, signs2, WithThreads(3)))

	assert.Equal(t, plain, withG)
	assert.Equal(t, plain, withSign)
	assert.Equal(t, plain, both)
	assert.Equal(t, g, g2)
	for _, s := range signs {
		assert.Equal(t, 1, s)
	}

	// Replaying the group element reaches the representative, and the
	// representative is its own representative.
	sign := 1
	periods := e.Periods()
	for i, s := range states {
		r := s
		for k := 0; k < nt; k++ {
			pw := g[i*nt+k]
			require.Less(t, pw, periods[k])
			for j := 0; j < pw; j++ {
				r = e.MapState(r, k, &sign)
			}
		}
		require.Equal(t, plain[i], r)
	}

	again := make([]uint32, len(plain))
	require.NoError(t, Representatives(ctx, e, plain, again, nil, nil))
	assert.Equal(t, plain, again)
}

func TestRepresentatives_BufferMismatch(t *testing.T) {
	e := chain(t, 6, 0, nil)
	states := []uint32{1, 2, 3}
	ctx := context.Background()

	var bm *ErrBufferMismatch
	require.ErrorAs(t, Representatives(ctx, e, states, make([]uint32, 2), nil, nil), &bm)
	assert.Equal(t, "reps", bm.Buffer)
	require.ErrorAs(t, Representatives(ctx, e, states, make([]uint32, 3), make([]int, 2), nil), &bm)
	assert.Equal(t, "g", bm.Buffer)
	require.ErrorAs(t, Representatives(ctx, e, states, make([]uint32, 3), nil, make([]int, 4)), &bm)
	assert.Equal(t, "signs", bm.Buffer)
}
