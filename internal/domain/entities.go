package domain

import "time"

// Document is an ingested file. Immutable once created; deleting a
// document cascades to its chunks and stored vectors.
type Document struct {
	ID          string
	Name        string
	MediaType   string
	ByteSize    int64
	ContentHash string
	CreatedAt   time.Time
}

// Chunk is a bounded substring of a document, the unit of retrieval.
// Seq is the 0-based position within the owning document.
type Chunk struct {
	ID      string
	DocID   string
	Seq     int
	Content string
}

// Candidate is a chunk pulled from the vector store during a single
// retrieval, scored against a query vector. Never persisted.
type Candidate struct {
	ChunkID    string
	DocID      string
	Content    string
	Embedding  []float32
	Similarity float64
}

// Passage is a candidate selected for the final answer, annotated with
// its source document's display name for citation.
type Passage struct {
	ChunkID    string
	DocID      string
	DocName    string
	Content    string
	Embedding  []float32
	Similarity float64
}

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
