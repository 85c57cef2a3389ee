package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/adapter/retriever"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// RetrieveUseCase orchestrates the retrieval pipeline: embedding,
// optional deep-search grounding, HyDE expansion, over-fetch vector
// search, and MMR re-ranking. Each call owns its own query vector,
// candidate pool and progress channel; concurrent calls share nothing
// mutable.
type RetrieveUseCase struct {
	embedder      port.Embedder
	vectors       port.VectorStore
	docs          port.DocumentStore
	hyde          *retriever.HyDEGenerator
	reranker      *retriever.MMRReranker
	deepFormatter *ContextFormatter
	cfg           config.RetrieveConfig
	logger        *zap.Logger
}

func NewRetrieveUseCase(
	embedder port.Embedder,
	vectors port.VectorStore,
	docs port.DocumentStore,
	hyde *retriever.HyDEGenerator,
	reranker *retriever.MMRReranker,
	cfg config.RetrieveConfig,
	deepSearchBudget int,
	logger *zap.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		embedder:      embedder,
		vectors:       vectors,
		docs:          docs,
		hyde:          hyde,
		reranker:      reranker,
		deepFormatter: NewContextFormatter(deepSearchBudget),
		cfg:           cfg,
		logger:        logger,
	}
}

// Retrieve returns the ranked, diverse passage set for the query.
//
// Standard mode embeds the query, drafts a hypothetical answer, embeds
// the draft as the search vector and MMR-reranks the over-fetched pool
// against the original query embedding. Deep-search mode first runs a
// preliminary search at the more permissive threshold and, when it
// finds anything, grounds the HyDE draft on it; an empty preliminary
// pass degrades to standard mode exactly.
//
// Stage notifications go to events best-effort; a nil or full channel
// never blocks the pipeline. Embedder and vector-store errors propagate
// unmodified; HyDE failures degrade to the raw query. An empty final
// pool is a legitimate empty result, not an error.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, history []domain.Message, deepSearch bool, events chan<- domain.ProgressEvent) ([]domain.Passage, error) {
	notify(events, domain.StageStarting)

	queryVec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	priorContext := ""
	if deepSearch {
		notify(events, domain.StageInitialSearch)

		prelim, err := u.vectors.Search(queryVec, u.cfg.PoolSize, u.cfg.DeepSearchThreshold)
		if err != nil {
			return nil, fmt.Errorf("preliminary search failed: %w", err)
		}
		if len(prelim) > 0 {
			priorContext, _ = u.deepFormatter.Format(u.resolve(prelim))
		} else {
			u.logger.Debug("preliminary pass found nothing, using standard hypothetical answer")
		}
	}

	notify(events, domain.StageHypothetical)
	hypothetical := u.hyde.Generate(ctx, query, history, priorContext)

	searchVec := queryVec
	if hypothetical != query {
		searchVec, err = u.embedder.Embed(ctx, hypothetical)
		if err != nil {
			return nil, fmt.Errorf("failed to embed hypothetical answer: %w", err)
		}
	}

	notify(events, domain.StageFinalSearch)
	pool, err := u.vectors.Search(searchVec, u.cfg.PoolSize, u.cfg.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(pool) == 0 {
		u.logger.Info("retrieval found no passages", zap.String("query", query))
		return nil, nil
	}

	notify(events, domain.StageReranking)
	// The relevance anchor is the original query's embedding, not the
	// hypothetical document's.
	ranked, err := u.reranker.Rerank(queryVec, pool, u.cfg.TopK)
	if err != nil {
		return nil, err
	}

	return u.resolve(ranked), nil
}

// resolve annotates candidates with their document display names.
// Candidates whose document vanished mid-query are dropped.
func (u *RetrieveUseCase) resolve(candidates []domain.Candidate) []domain.Passage {
	passages := make([]domain.Passage, 0, len(candidates))
	for _, c := range candidates {
		name, err := u.docs.GetName(c.DocID)
		if err != nil {
			u.logger.Warn("failed to resolve document name",
				zap.String("doc_id", c.DocID), zap.Error(err))
			continue
		}
		passages = append(passages, domain.Passage{
			ChunkID:    c.ChunkID,
			DocID:      c.DocID,
			DocName:    name,
			Content:    c.Content,
			Embedding:  c.Embedding,
			Similarity: c.Similarity,
		})
	}
	return passages
}

// notify sends a stage event without ever blocking the pipeline.
func notify(events chan<- domain.ProgressEvent, stage domain.Stage) {
	if events == nil {
		return
	}
	select {
	case events <- domain.ProgressEvent{Stage: stage}:
	default:
	}
}
