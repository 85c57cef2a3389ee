package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestBoltStoreDocRoundTrip(t *testing.T) {
	st, _ := newTestStores(t)

	doc := domain.Document{
		ID:          "doc-1",
		Name:        "handbook.txt",
		MediaType:   "text/plain",
		ByteSize:    2500,
		ContentHash: "abc123",
		CreatedAt:   time.Unix(1700000000, 0),
	}
	require.NoError(t, st.PutDoc(doc))

	got, err := st.GetDoc("doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	name, err := st.GetName("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "handbook.txt", name)

	byHash, found, err := st.GetDocByHash("abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "doc-1", byHash.ID)

	_, found, err = st.GetDocByHash("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStoreChunksKeepSeqOrder(t *testing.T) {
	st, _ := newTestStores(t)

	// Insert out of order; retrieval must come back by Seq.
	for _, seq := range []int{2, 0, 1} {
		require.NoError(t, st.PutChunk(domain.Chunk{
			ID:      chunkID(seq),
			DocID:   "doc-1",
			Seq:     seq,
			Content: chunkID(seq) + " content",
		}))
	}

	chunks, err := st.GetChunksByDoc("doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Seq)
		assert.Equal(t, "doc-1", c.DocID)
	}
}

func TestBoltStoreDeleteCascade(t *testing.T) {
	st, _ := newTestStores(t)

	require.NoError(t, st.PutDoc(domain.Document{ID: "doc-1", Name: "a.txt", ContentHash: "h1", CreatedAt: time.Now()}))
	require.NoError(t, st.PutChunk(domain.Chunk{ID: "c1", DocID: "doc-1", Seq: 0, Content: "x"}))
	require.NoError(t, st.PutChunk(domain.Chunk{ID: "c2", DocID: "doc-1", Seq: 1, Content: "y"}))

	require.NoError(t, st.DeleteChunksByDoc("doc-1"))
	require.NoError(t, st.DeleteDoc("doc-1"))

	chunks, err := st.GetChunksByDoc("doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = st.GetDoc("doc-1")
	assert.Error(t, err)

	_, found, err := st.GetDocByHash("h1")
	require.NoError(t, err)
	assert.False(t, found, "hash entry must go away with the document")
}

func chunkID(seq int) string {
	return []string{"chunk-a", "chunk-b", "chunk-c"}[seq]
}
