package port

import (
	"context"

	"docchat/internal/domain"
)

// LLM represents a chat language model.
//
// Completion always produces a stream of text deltas internally;
// Complete is the draining convenience for callers that only need the
// concatenated result.
type LLM interface {
	// Complete generates a full response for the conversation.
	Complete(ctx context.Context, messages []domain.Message) (string, error)

	// CompleteStream generates a response as a sequence of text deltas.
	CompleteStream(ctx context.Context, messages []domain.Message) (CompletionStream, error)
}

// CompletionStream is a finite, single-consumption sequence of text
// deltas. Recv returns io.EOF after the last delta.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}
