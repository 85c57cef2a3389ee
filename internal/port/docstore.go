package port

import "docchat/internal/domain"

// DocumentStore persists document and chunk records.
type DocumentStore interface {
	PutDoc(doc domain.Document) error

	GetDoc(id string) (domain.Document, error)

	// GetDocByHash looks a document up by content hash for duplicate
	// detection. Returns ok=false when no document has the hash.
	GetDocByHash(hash string) (domain.Document, bool, error)

	DeleteDoc(id string) error

	ListDocs() ([]domain.Document, error)

	PutChunk(chunk domain.Chunk) error

	// GetChunksByDoc returns a document's chunks in Seq order.
	GetChunksByDoc(docID string) ([]domain.Chunk, error)

	DeleteChunksByDoc(docID string) error

	// GetName resolves a document's display name for citation.
	GetName(docID string) (string, error)

	Close() error
}
