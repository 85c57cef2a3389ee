package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
	"docchat/internal/port"
)

func newTestStores(t *testing.T) (*BoltStore, *BoltVectorStore) {
	t.Helper()

	st, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	vs, err := NewBoltVectorStore(st.DB(), 3)
	require.NoError(t, err)
	return st, vs
}

func TestVectorStoreSearchThresholdAndOrder(t *testing.T) {
	_, bolt := newTestStores(t)
	stores := map[string]port.VectorStore{
		"bolt":   bolt,
		"memory": NewMemoryVectorStore(3),
	}

	for name, vs := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, vs.Insert("c1", "d1", "exact match", []float32{1, 0, 0}))
			require.NoError(t, vs.Insert("c2", "d1", "close match", []float32{0.9, 0.1, 0}))
			require.NoError(t, vs.Insert("c3", "d2", "orthogonal", []float32{0, 1, 0}))
			require.NoError(t, vs.Insert("c4", "d2", "opposite", []float32{-1, 0, 0}))

			results, err := vs.Search([]float32{1, 0, 0}, 10, 0.5)
			require.NoError(t, err)
			require.Len(t, results, 2)
			assert.Equal(t, "c1", results[0].ChunkID)
			assert.Equal(t, "c2", results[1].ChunkID)
			assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
			assert.Equal(t, []float32{0.9, 0.1, 0}, results[1].Embedding)
			assert.Equal(t, "close match", results[1].Content)

			limited, err := vs.Search([]float32{1, 0, 0}, 1, -1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "c1", limited[0].ChunkID)
		})
	}
}

func TestVectorStoreDimensionMismatch(t *testing.T) {
	_, vs := newTestStores(t)

	err := vs.Insert("c1", "d1", "text", []float32{1, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

	_, err = vs.Search([]float32{1, 0}, 10, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestVectorStoreDeleteByDocument(t *testing.T) {
	_, vs := newTestStores(t)

	require.NoError(t, vs.Insert("c1", "d1", "a", []float32{1, 0, 0}))
	require.NoError(t, vs.Insert("c2", "d1", "b", []float32{0, 1, 0}))
	require.NoError(t, vs.Insert("c3", "d2", "c", []float32{0, 0, 1}))

	require.NoError(t, vs.DeleteByDocument("d1"))

	count, err := vs.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := vs.Search([]float32{0, 0, 1}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c3", results[0].ChunkID)
}

func TestVectorStoreReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	st, err := NewBoltStore(path)
	require.NoError(t, err)
	vs, err := NewBoltVectorStore(st.DB(), 3)
	require.NoError(t, err)
	require.NoError(t, vs.Insert("c1", "d1", "persisted", []float32{0, 1, 0}))
	require.NoError(t, st.Close())

	st, err = NewBoltStore(path)
	require.NoError(t, err)
	defer st.Close()
	vs, err = NewBoltVectorStore(st.DB(), 3)
	require.NoError(t, err)

	results, err := vs.Search([]float32{0, 1, 0}, 10, 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted", results[0].Content)
	assert.Equal(t, "d1", results[0].DocID)
}
