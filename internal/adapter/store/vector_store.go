package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"docchat/internal/domain"
	"docchat/internal/vectormath"
)

var bucketVectors = []byte("vectors")

// BoltVectorStore persists chunk embeddings in BoltDB and serves
// brute-force cosine search from an in-memory mirror. Good enough for
// a private corpus; swap in an ANN index if collections grow large.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	vectors map[string]vectorEntry
}

type vectorEntry struct {
	docID   string
	content string
	vector  []float32
}

type storedVector struct {
	DocID   string    `json:"d"`
	Content string    `json:"c"`
	Vector  []float32 `json:"v"`
}

// NewBoltVectorStore opens the vectors bucket and loads existing
// entries into memory. The dimension is fixed per deployment.
func NewBoltVectorStore(db *bbolt.DB, dimension int) (*BoltVectorStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}

	s := &BoltVectorStore{
		db:        db,
		dimension: dimension,
		vectors:   make(map[string]vectorEntry),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return s, nil
}

func (s *BoltVectorStore) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			s.vectors[string(k)] = vectorEntry{
				docID:   stored.DocID,
				content: stored.Content,
				vector:  stored.Vector,
			}
			return nil
		})
	})
}

func (s *BoltVectorStore) Insert(chunkID, docID, content string, vector []float32) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("insert %s: expected %d, got %d: %w", chunkID, s.dimension, len(vector), domain.ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(storedVector{DocID: docID, Content: content, Vector: vector})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketVectors).Put([]byte(chunkID), data)
	})
	if err != nil {
		return err
	}

	s.vectors[chunkID] = vectorEntry{docID: docID, content: content, vector: vector}
	return nil
}

// Search returns up to limit candidates with similarity >= threshold,
// sorted by similarity descending. Candidate order for equal scores
// follows chunk ID so results are deterministic.
func (s *BoltVectorStore) Search(vector []float32, limit int, threshold float64) ([]domain.Candidate, error) {
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

func (s *BoltVectorStore) DeleteByDocument(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, entry := range s.vectors {
		if entry.docID == docID {
			ids = append(ids, id)
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		delete(s.vectors, id)
	}
	return nil
}

func (s *BoltVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}
