package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerPrompt = template.Must(
	template.ParseFS(promptTemplates, "templates/answer_prompt.txt"))

// ChatUseCase answers a question against the corpus: retrieve, format
// context, assemble the citation-aware prompt, stream the model's
// answer.
//
// Events are delivered in order on the caller's channel: retrieval
// stage notifications, then one token event per text delta, then
// exactly one final event carrying the full answer and the passages it
// cites. A failure anywhere produces a distinct error event instead of
// a silent stop.
type ChatUseCase struct {
	retrieve  *RetrieveUseCase
	formatter *ContextFormatter
	llm       port.LLM
	logger    *zap.Logger
}

func NewChatUseCase(retrieve *RetrieveUseCase, formatter *ContextFormatter, llm port.LLM, logger *zap.Logger) *ChatUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatUseCase{
		retrieve:  retrieve,
		formatter: formatter,
		llm:       llm,
		logger:    logger,
	}
}

// Ask answers the query, emitting the event sequence described on the
// type. The returned passages are in citation order: passage i is
// [Source i+1] in the answer.
func (u *ChatUseCase) Ask(ctx context.Context, query string, history []domain.Message, deepSearch bool, events chan<- domain.ChatEvent) (string, []domain.Passage, error) {
	progress := make(chan domain.ProgressEvent, 8)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for ev := range progress {
			u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventProgress, Stage: ev.Stage})
		}
	}()

	passages, err := u.retrieve.Retrieve(ctx, query, history, deepSearch, progress)
	close(progress)
	<-forwarded
	if err != nil {
		u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventError, Err: err})
		return "", nil, err
	}

	contextBlock, included := u.formatter.Format(passages)

	system, err := renderAnswerPrompt(contextBlock, len(included))
	if err != nil {
		u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventError, Err: err})
		return "", nil, err
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: query})

	stream, err := u.llm.CompleteStream(ctx, messages)
	if err != nil {
		u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventError, Err: err})
		return "", nil, err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventError, Err: err})
			return "", nil, err
		}
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		u.send(ctx, events, domain.ChatEvent{Kind: domain.ChatEventToken, Token: delta})
	}

	answer := sb.String()
	u.send(ctx, events, domain.ChatEvent{
		Kind:     domain.ChatEventFinal,
		Answer:   answer,
		Passages: included,
	})

	return answer, included, nil
}

// send delivers payload-carrying events reliably; it blocks until the
// caller drains or abandons the request.
func (u *ChatUseCase) send(ctx context.Context, events chan<- domain.ChatEvent, ev domain.ChatEvent) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func renderAnswerPrompt(contextBlock string, sourceCount int) (string, error) {
	var buf bytes.Buffer
	err := answerPrompt.Execute(&buf, struct {
		HasContext  bool
		Context     string
		SourceCount int
	}{
		HasContext:  sourceCount > 0,
		Context:     contextBlock,
		SourceCount: sourceCount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render answer prompt: %w", err)
	}
	return buf.String(), nil
}
