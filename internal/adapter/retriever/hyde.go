package retriever

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/port"
)

const hydeSystemPrompt = `You are drafting a hypothetical answer to the user's question.
Write a complete, self-contained answer as if you had access to all relevant documentation.
The draft is used only to search a document collection, never shown to anyone.
Answer directly without caveats or meta-commentary. Keep it under 200 words.`

const hydeGroundedSystemPrompt = `You are drafting a hypothetical answer to the user's question.
Preliminary search results are provided below; use their terminology and facts where they apply,
and fill the gaps with a plausible complete answer. The draft is used only to search a document
collection, never shown to anyone. Answer directly without caveats or meta-commentary.
Keep it under 200 words.

Preliminary results:
%s`

// HyDEGenerator asks the language model to draft a plausible answer to
// the query. The draft exists only to produce a richer search vector;
// its wording tends to match supporting passages better than the terse
// original question.
type HyDEGenerator struct {
	llm    port.LLM
	logger *zap.Logger
}

func NewHyDEGenerator(llm port.LLM, logger *zap.Logger) *HyDEGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HyDEGenerator{llm: llm, logger: logger}
}

// Generate returns the hypothetical document for the query, optionally
// grounded on priorContext. On any language-model failure it falls back
// to returning the query unchanged; it never fails the caller.
func (g *HyDEGenerator) Generate(ctx context.Context, query string, history []domain.Message, priorContext string) string {
	system := hydeSystemPrompt
	if priorContext != "" {
		system = fmt.Sprintf(hydeGroundedSystemPrompt, priorContext)
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: query})

	draft, err := g.llm.Complete(ctx, messages)
	if err != nil {
		g.logger.Warn("hypothetical answer generation failed, using raw query",
			zap.Error(err))
		return query
	}
	if strings.TrimSpace(draft) == "" {
		g.logger.Warn("hypothetical answer came back empty, using raw query")
		return query
	}

	return draft
}
