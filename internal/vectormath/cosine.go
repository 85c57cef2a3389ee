package vectormath

import (
	"fmt"
	"math"

	"docchat/internal/domain"
)

// Cosine computes the cosine similarity between two vectors in [-1, 1].
// Accumulation is done in float64 so that near-duplicate scores rank
// stably. A zero-magnitude operand yields 0, not an error.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine: %d vs %d: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
