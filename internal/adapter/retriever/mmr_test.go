package retriever

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func candidate(id string, vec []float32) domain.Candidate {
	return domain.Candidate{ChunkID: id, Embedding: vec}
}

func TestMMREmptyCandidates(t *testing.T) {
	reranker := NewMMRReranker(0.5)

	results, err := reranker.Rerank([]float32{1, 0}, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, results)

	results, err = reranker.Rerank([]float32{1, 0}, []domain.Candidate{}, 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestMMRLambdaOneIsPureRelevance(t *testing.T) {
	reranker := NewMMRReranker(1.0)
	query := []float32{1, 0}

	candidates := []domain.Candidate{
		candidate("mid", []float32{0.8, 0.6}),
		candidate("low", []float32{0.5, 0.87}),
		candidate("high", []float32{1, 0}),
	}

	results, err := reranker.Rerank(query, candidates, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "high", results[0].ChunkID)
	assert.Equal(t, "mid", results[1].ChunkID)
	assert.Equal(t, "low", results[2].ChunkID)
}

func TestMMROutputLengthAndUniqueness(t *testing.T) {
	reranker := NewMMRReranker(0.5)
	query := []float32{1, 0, 0}

	candidates := []domain.Candidate{
		candidate("a", []float32{1, 0, 0}),
		candidate("b", []float32{0, 1, 0}),
		candidate("c", []float32{0, 0, 1}),
		candidate("d", []float32{0.5, 0.5, 0}),
	}

	for _, k := range []int{1, 2, 4, 10} {
		results, err := reranker.Rerank(query, candidates, k)
		require.NoError(t, err)

		want := k
		if want > len(candidates) {
			want = len(candidates)
		}
		assert.Len(t, results, want)

		seen := make(map[string]bool)
		for _, r := range results {
			assert.False(t, seen[r.ChunkID], "candidate %s selected twice", r.ChunkID)
			seen[r.ChunkID] = true
		}
	}
}

func TestMMRPrefersDiverseOverNearDuplicate(t *testing.T) {
	reranker := NewMMRReranker(0.5)
	query := []float32{1, 0, 0}

	candidates := []domain.Candidate{
		candidate("dup1", []float32{0.95, 0.31, 0}),
		candidate("dup2", []float32{0.94, 0.33, 0}),
		candidate("distinct", []float32{0.6, -0.6, 0.5}),
	}

	results, err := reranker.Rerank(query, candidates, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "dup1", results[0].ChunkID)
	assert.Equal(t, "distinct", results[1].ChunkID, "second pick must cover the distinct passage, not the duplicate")
}

func TestMMRTiesBreakOnInputOrder(t *testing.T) {
	reranker := NewMMRReranker(1.0)
	query := []float32{1, 0}

	candidates := []domain.Candidate{
		candidate("first", []float32{1, 0}),
		candidate("second", []float32{1, 0}),
		candidate("weak", []float32{0, 1}),
	}

	results, err := reranker.Rerank(query, candidates, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ChunkID)
	assert.Equal(t, "second", results[1].ChunkID)
}

func TestMMRDimensionMismatch(t *testing.T) {
	reranker := NewMMRReranker(0.5)

	_, err := reranker.Rerank([]float32{1, 0, 0}, []domain.Candidate{
		candidate("bad", []float32{1, 0}),
	}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}
