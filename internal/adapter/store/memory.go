package store

import (
	"fmt"
	"sort"
	"sync"

	"docchat/internal/domain"
	"docchat/internal/vectormath"
)

// MemoryVectorStore is an in-process VectorStore with the same search
// semantics as the bolt-backed one. Used in tests and throwaway runs.
type MemoryVectorStore struct {
	dimension int

	mu      sync.RWMutex
	vectors map[string]vectorEntry
}

func NewMemoryVectorStore(dimension int) *MemoryVectorStore {
	return &MemoryVectorStore{
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}
}

func (s *MemoryVectorStore) Insert(chunkID, docID, content string, vector []float32) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("insert %s: expected %d, got %d: %w", chunkID, s.dimension, len(vector), domain.ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[chunkID] = vectorEntry{docID: docID, content: content, vector: vector}
	return nil
}

func (s *MemoryVectorStore) Search(vector []float32, limit int, threshold float64) ([]domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, fmt.Errorf("search: expected %d, got %d: %w", s.dimension, len(vector), domain.ErrDimensionMismatch)
	}

	candidates := make([]domain.Candidate, 0, len(s.vectors))
	for id, entry := range s.vectors {
		sim, err := vectormath.Cosine(vector, entry.vector)
		if err != nil {
			return nil, err
		}
		if sim < threshold {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			ChunkID:    id,
			DocID:      entry.docID,
			Content:    entry.content,
			Embedding:  entry.vector,
			Similarity: sim,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *MemoryVectorStore) DeleteByDocument(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.vectors {
		if entry.docID == docID {
			delete(s.vectors, id)
		}
	}
	return nil
}

func (s *MemoryVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}
