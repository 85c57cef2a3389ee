package retriever

import (
	"math"

	"docchat/internal/domain"
	"docchat/internal/vectormath"
)

// MMRReranker implements Maximal Marginal Relevance for result
// diversification. Pure top-k similarity tends to return near-duplicate
// passages; MMR trades a little top-1 relevance for coverage across
// distinct source material.
type MMRReranker struct {
	lambda float64
}

// NewMMRReranker creates a reranker with the given relevance/diversity
// trade-off. lambda=1 degenerates to plain top-k relevance ordering.
func NewMMRReranker(lambda float64) *MMRReranker {
	return &MMRReranker{lambda: lambda}
}

// Rerank selects up to k candidates ordered by selection:
// MMR(c) = lambda * relevance(c) - (1-lambda) * max_sim(c, selected),
// with relevance measured against queryVec. Ties break on input order
// so results are deterministic.
func (r *MMRReranker) Rerank(queryVec []float32, candidates []domain.Candidate, k int) ([]domain.Candidate, error) {
	if len(candidates) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i := range candidates {
		rel, err := vectormath.Cosine(queryVec, candidates[i].Embedding)
		if err != nil {
			return nil, err
		}
		relevance[i] = rel
	}

	seed := 0
	for i := 1; i < len(candidates); i++ {
		if relevance[i] > relevance[seed] {
			seed = i
		}
	}

	selected := make([]int, 0, k)
	selected = append(selected, seed)
	used := make([]bool, len(candidates))
	used[seed] = true

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)

		for i := range candidates {
			if used[i] {
				continue
			}

			maxSim := -1.0
			for _, s := range selected {
				sim, err := vectormath.Cosine(candidates[i].Embedding, candidates[s].Embedding)
				if err != nil {
					return nil, err
				}
				if sim > maxSim {
					maxSim = sim
				}
			}

			score := r.lambda*relevance[i] - (1-r.lambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}
		selected = append(selected, bestIdx)
		used[bestIdx] = true
	}

	out := make([]domain.Candidate, len(selected))
	for i, idx := range selected {
		out[i] = candidates[idx]
	}
	return out, nil
}
