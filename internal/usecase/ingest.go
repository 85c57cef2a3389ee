package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/adapter/embedding"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// IngestUseCase turns raw document text into stored chunks and vectors.
// Ingestion is all-or-nothing per document: any failure after the
// document record is created triggers compensating cleanup, so the
// corpus never holds a document without its chunks and embeddings.
type IngestUseCase struct {
	docs      port.DocumentStore
	vectors   port.VectorStore
	chunker   port.Chunker
	embedder  port.Embedder
	batchSize int
	logger    *zap.Logger
}

func NewIngestUseCase(
	docs port.DocumentStore,
	vectors port.VectorStore,
	chunker port.Chunker,
	embedder port.Embedder,
	batchSize int,
	logger *zap.Logger,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		docs:      docs,
		vectors:   vectors,
		chunker:   chunker,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestResult describes one completed (or skipped) ingestion.
type IngestResult struct {
	Doc           domain.Document
	ChunksCreated int
	Duplicate     bool
}

// Ingest chunks and indexes one document. A document whose content hash
// is already present is skipped, not re-ingested. onProgress, when
// non-nil, is called after each embedded batch with chunks done/total.
func (u *IngestUseCase) Ingest(ctx context.Context, name, mediaType, content string, onProgress func(done, total int)) (*IngestResult, error) {
	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])

	if existing, found, err := u.docs.GetDocByHash(hash); err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	} else if found {
		u.logger.Info("skipping duplicate document",
			zap.String("name", name), zap.String("existing_id", existing.ID))
		return &IngestResult{Doc: existing, Duplicate: true}, nil
	}

	pieces, err := u.chunker.Split(content)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document %q produced no chunks", name)
	}

	doc := domain.Document{
		ID:          uuid.NewString(),
		Name:        name,
		MediaType:   mediaType,
		ByteSize:    int64(len(content)),
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
	if err := u.docs.PutDoc(doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:      uuid.NewString(),
			DocID:   doc.ID,
			Seq:     i,
			Content: piece,
		}
	}

	if err := u.index(ctx, chunks, onProgress); err != nil {
		u.rollback(doc.ID)
		return nil, err
	}

	u.logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.String("name", name),
		zap.Int("chunks", len(chunks)))

	return &IngestResult{Doc: doc, ChunksCreated: len(chunks)}, nil
}

// index stores chunks and embeds them in fixed-size sequential batches.
func (u *IngestUseCase) index(ctx context.Context, chunks []domain.Chunk, onProgress func(done, total int)) error {
	for _, chunk := range chunks {
		if err := u.docs.PutChunk(chunk); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	total := len(chunks)
	for start := 0; start < total; start += u.batchSize {
		end := start + u.batchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := u.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("expected %d embeddings, got %d: %w", len(batch), len(vectors), domain.ErrProviderUnavailable)
		}

		for i, chunk := range batch {
			if err := embedding.Validate(vectors[i], u.embedder.Dimension()); err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.Seq, err)
			}
			if err := u.vectors.Insert(chunk.ID, chunk.DocID, chunk.Content, vectors[i]); err != nil {
				return fmt.Errorf("failed to store vector: %w", err)
			}
		}

		if onProgress != nil {
			onProgress(end, total)
		}
	}

	return nil
}

// rollback removes everything a failed ingestion left behind.
func (u *IngestUseCase) rollback(docID string) {
	if err := u.vectors.DeleteByDocument(docID); err != nil {
		u.logger.Error("rollback: failed to delete vectors", zap.String("doc_id", docID), zap.Error(err))
	}
	if err := u.docs.DeleteChunksByDoc(docID); err != nil {
		u.logger.Error("rollback: failed to delete chunks", zap.String("doc_id", docID), zap.Error(err))
	}
	if err := u.docs.DeleteDoc(docID); err != nil {
		u.logger.Error("rollback: failed to delete document", zap.String("doc_id", docID), zap.Error(err))
	}
}

// DeleteDocument removes a document and all of its derived data.
func (u *IngestUseCase) DeleteDocument(docID string) error {
	if _, err := u.docs.GetDoc(docID); err != nil {
		return err
	}
	if err := u.vectors.DeleteByDocument(docID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := u.docs.DeleteChunksByDoc(docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return u.docs.DeleteDoc(docID)
}
