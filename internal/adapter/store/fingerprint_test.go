package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func testSettings() IndexSettings {
	return IndexSettings{
		ChunkSize:      1000,
		ChunkOverlap:   200,
		EmbeddingModel: "text-embedding-3-small",
		Dimension:      1536,
	}
}

func TestEmptyCorpusIsCompatible(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	compatible, reason, err := s.CheckCompatibility(testSettings())
	require.NoError(t, err)
	assert.True(t, compatible)
	assert.Empty(t, reason)
}

func TestFingerprintDetectsSettingChanges(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	settings := testSettings()
	require.NoError(t, s.SetFingerprint(settings))

	compatible, _, err := s.CheckCompatibility(settings)
	require.NoError(t, err)
	assert.True(t, compatible)

	changed := settings
	changed.EmbeddingModel = "text-embedding-3-large"
	changed.Dimension = 3072

	compatible, reason, err := s.CheckCompatibility(changed)
	require.NoError(t, err)
	assert.False(t, compatible)
	assert.NotEmpty(t, reason)
}

func TestClearWipesCorpusAndFingerprint(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutDoc(domain.Document{ID: "d1", Name: "a.txt", ContentHash: "h1"}))
	require.NoError(t, s.PutChunk(domain.Chunk{ID: "c1", DocID: "d1", Seq: 0, Content: "text"}))
	require.NoError(t, s.SetFingerprint(testSettings()))

	vectors, err := NewBoltVectorStore(s.DB(), 3)
	require.NoError(t, err)
	require.NoError(t, vectors.Insert("c1", "d1", "text", []float32{1, 0, 0}))

	require.NoError(t, s.Clear())

	docs, err := s.ListDocs()
	require.NoError(t, err)
	assert.Empty(t, docs)

	chunks, err := s.GetChunksByDoc("d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, found, err := s.GetDocByHash("h1")
	require.NoError(t, err)
	assert.False(t, found)

	// settings change after a clear is compatible again
	changed := testSettings()
	changed.ChunkSize = 500
	compatible, _, err := s.CheckCompatibility(changed)
	require.NoError(t, err)
	assert.True(t, compatible)

	// a reopened vector store sees the wiped bucket
	reloaded, err := NewBoltVectorStore(s.DB(), 3)
	require.NoError(t, err)
	count, err := reloaded.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
