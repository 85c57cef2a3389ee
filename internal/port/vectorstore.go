package port

import "docchat/internal/domain"

// VectorStore stores chunk embeddings and performs similarity search.
// The corpus is read-only from the retrieval pipeline's perspective;
// concurrent searches need no coordination.
type VectorStore interface {
	// Insert adds one chunk vector with its owning document and content.
	Insert(chunkID, docID, content string, vector []float32) error

	// Search returns up to limit candidates with similarity >= threshold,
	// sorted by similarity descending. Each result carries the stored
	// embedding so re-ranking needs no further store access.
	Search(vector []float32, limit int, threshold float64) ([]domain.Candidate, error)

	// DeleteByDocument removes all vectors owned by the document.
	DeleteByDocument(docID string) error

	// Count returns the number of stored vectors.
	Count() (int, error)
}
