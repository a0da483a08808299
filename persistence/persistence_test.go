package persistence

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/qbasis/blobstore"
	"github.com/hupe1980/qbasis/codec"
	"github.com/hupe1980/qbasis/nlce"
	"github.com/hupe1980/qbasis/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBasis(n int) ([]uint16, []int64) {
	states := make([]uint16, n)
	norms := make([]int64, n)
	for i := range states {
		states[i] = uint16(3*i + 1)
		norms[i] = int64(1 + i%4)
	}
	return states, norms
}

func TestHeaderSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, &FileHeader{Kind: KindBasis}))
	assert.Equal(t, HeaderSize, buf.Len())
	assert.Equal(t, []byte("QBS1"), buf.Bytes()[:4])
}

func TestBasisRoundTrip(t *testing.T) {
	ctx := t.Context()
	states, norms := testBasis(5000)

	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			stores := map[string]blobstore.BlobStore{
				"memory": blobstore.NewMemoryStore(),
				"local":  blobstore.NewLocalStore(t.TempDir()),
			}
			for name, store := range stores {
				t.Run(name, func(t *testing.T) {
					err := SaveBasis(ctx, store, "chain/basis.qbs", states, norms,
						WithCompression(ct), WithBlockSize(1024))
					require.NoError(t, err)

					gotS, gotN, err := LoadBasis[uint16, int64](ctx, store, "chain/basis.qbs")
					require.NoError(t, err)
					assert.Equal(t, states, gotS)
					assert.Equal(t, norms, gotN)
				})
			}
		})
	}
}

func TestBasisCompressionShrinks(t *testing.T) {
	ctx := t.Context()
	states, norms := testBasis(4096)

	sizes := map[CompressionType]int64{}
	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		store := blobstore.NewMemoryStore()
		require.NoError(t, SaveBasis(ctx, store, "b", states, norms, WithCompression(ct)))
		blob, err := store.Open(ctx, "b")
		require.NoError(t, err)
		sizes[ct] = blob.Size()
		require.NoError(t, blob.Close())
	}
	assert.Less(t, sizes[CompressionLZ4], sizes[CompressionNone])
	assert.Less(t, sizes[CompressionZSTD], sizes[CompressionNone])
}

func TestBasisFloatNorms(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()

	states := []uint64{1 << 40, 1<<40 | 3, 1<<63 | 1}
	norms := []float64{0.5, 2, 1.0 / 3}
	require.NoError(t, SaveBasis(ctx, store, "f", states, norms))

	gotS, gotN, err := LoadBasis[uint64, float64](ctx, store, "f")
	require.NoError(t, err)
	assert.Equal(t, states, gotS)
	assert.Equal(t, norms, gotN)

	_, _, err = LoadBasis[uint64, int64](ctx, store, "f")
	assert.ErrorIs(t, err, ErrNormKind)

	_, _, err = LoadBasis[uint32, float64](ctx, store, "f")
	assert.ErrorIs(t, err, ErrStateWidth)
}

func TestBasisEmpty(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()
	require.NoError(t, SaveBasis[uint8, int8](ctx, store, "e", nil, nil, WithCompression(CompressionZSTD)))

	s, n, err := LoadBasis[uint8, int8](ctx, store, "e")
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.Empty(t, n)
}

func TestSaveBasisLengthMismatch(t *testing.T) {
	err := SaveBasis(t.Context(), blobstore.NewMemoryStore(), "x", []uint8{1, 2}, []int64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestLoadCorruption(t *testing.T) {
	ctx := t.Context()
	states, norms := testBasis(100)

	save := func(t *testing.T) (*blobstore.MemoryStore, []byte) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, SaveBasis(ctx, store, "b", states, norms, WithCompression(CompressionLZ4)))
		data, err := blobstore.ReadAll(ctx, store, "b")
		require.NoError(t, err)
		return store, data
	}

	t.Run("Checksum", func(t *testing.T) {
		store, data := save(t)
		data[len(data)-1] ^= 0xff
		require.NoError(t, store.Put(ctx, "b", data))

		_, _, err := LoadBasis[uint16, int64](ctx, store, "b")
		require.Error(t, err)
		assert.True(t, IsChecksumMismatch(err))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Magic", func(t *testing.T) {
		store, data := save(t)
		data[0] = 'X'
		require.NoError(t, store.Put(ctx, "b", data))

		_, _, err := LoadBasis[uint16, int64](ctx, store, "b")
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("Truncated", func(t *testing.T) {
		store, data := save(t)
		require.NoError(t, store.Put(ctx, "b", data[:len(data)-10]))

		_, _, err := LoadBasis[uint16, int64](ctx, store, "b")
		assert.ErrorIs(t, err, ErrCorrupt)

		require.NoError(t, store.Put(ctx, "b", data[:10]))
		_, _, err = LoadBasis[uint16, int64](ctx, store, "b")
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Missing", func(t *testing.T) {
		_, _, err := LoadBasis[uint16, int64](ctx, blobstore.NewMemoryStore(), "nope")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func chainSnapshot() nlce.Snapshot {
	return nlce.Snapshot{
		Order: 3,
		Clusters: []nlce.Cluster{
			{State: 0b1, Sites: []int{0}, Order: 1, L: 1},
			{State: 0b11, Sites: []int{0, 1}, Order: 2, L: 1, Edges: [][2]int{{0, 1}}},
			{State: 0b111, Sites: []int{0, 1, 2}, Order: 3, L: 1, Edges: [][2]int{{0, 1}, {1, 2}}},
		},
		Y: [][]nlce.Entry{
			nil,
			{{Col: 0, Value: -2}},
			{{Col: 0, Value: -3}, {Col: 1, Value: -2}},
		},
	}
}

func TestExpansionRoundTrip(t *testing.T) {
	ctx := t.Context()
	want, err := nlce.FromSnapshot(chainSnapshot())
	require.NoError(t, err)

	sites := []float64{1, 2, 3}
	wantW, err := want.Weights(sites)
	require.NoError(t, err)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			store := blobstore.NewLocalStore(t.TempDir())
			require.NoError(t, SaveExpansion(ctx, store, "chain.nlce", want,
				WithCodec(c), WithCompression(CompressionZSTD)))

			got, err := LoadExpansion(ctx, store, "chain.nlce")
			require.NoError(t, err)
			assert.Equal(t, want.Order(), got.Order())
			assert.Equal(t, want.Orders(), got.Orders())
			assert.Equal(t, want.LatticeConstants(), got.LatticeConstants())

			gotW, err := got.Weights(sites)
			require.NoError(t, err)
			assert.Equal(t, wantW, gotW)
			assert.Equal(t, []float64{1, 0, 0}, gotW)
		})
	}
}

func TestKindMismatch(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()
	require.NoError(t, SaveBasis(ctx, store, "b", []uint8{1}, []int64{1}))

	_, err := LoadExpansion(ctx, store, "b")
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestRateLimitedSave(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	store := blobstore.NewMemoryStore()
	states, norms := testBasis(256)

	require.NoError(t, SaveBasis(ctx, store, "b", states, norms, WithResourceController(rc)))
	gotS, _, err := LoadBasis[uint16, int64](ctx, store, "b", WithResourceController(rc))
	require.NoError(t, err)
	assert.Equal(t, states, gotS)
}

func TestRateLimitedLoad(t *testing.T) {
	states, norms := testBasis(256)
	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, SaveBasis(t.Context(), store, "b", states, norms))

			rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
			gotS, _, err := LoadBasis[uint16, int64](t.Context(), store, "b", WithResourceController(rc))
			require.NoError(t, err)
			assert.Equal(t, states, gotS)

			// Mapped reads are charged too, so a canceled load fails in the limiter.
			ctx, cancel := context.WithCancel(t.Context())
			cancel()
			_, _, err = LoadBasis[uint16, int64](ctx, store, "b", WithResourceController(rc))
			assert.ErrorIs(t, err, context.Canceled)

			_, _, err = LoadBasis[uint16, int64](ctx, store, "b")
			assert.NoError(t, err)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]CompressionType{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, "zstd": CompressionZSTD} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}

func TestDecompressAllErrors(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBlockWriter(&buf, CompressionLZ4, 64)
	data := bytes.Repeat([]byte("abcd"), 64)
	_, err := bw.Write(data)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())
	assert.Equal(t, int64(buf.Len()), bw.BytesWritten())

	out, err := DecompressAll(buf.Bytes(), uint64(len(data)), CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	_, err = DecompressAll(buf.Bytes(), uint64(len(data))-1, CompressionLZ4)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = DecompressAll(buf.Bytes()[:5], uint64(len(data)), CompressionLZ4)
	assert.ErrorIs(t, err, ErrCorrupt)
}
