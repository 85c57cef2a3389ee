package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docchat/internal/domain"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible API.
// Rate-limit rejections are retried with a fixed delay up to MaxRetries
// per batch; a persistent failure surfaces as a provider error.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimension  int
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Dimension         int
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *zap.Logger
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is empty: %w", domain.ErrConfiguration)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive: %w", domain.ErrConfiguration)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimension:  cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned: %w", domain.ErrProviderUnavailable)
	}
	return vectors[0], nil
}

// EmbedBatch embeds the given texts in one provider call, retrying
// rate-limit rejections up to the configured bound.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	var resp openai.EmbeddingResponse
	for attempt := 0; ; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var err error
		resp, err = e.client.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}

		if !isRateLimited(err) {
			return nil, fmt.Errorf("embedding request failed: %v: %w", err, domain.ErrProviderUnavailable)
		}
		if attempt >= e.maxRetries {
			return nil, fmt.Errorf("rate limit retries exhausted after %d attempts: %w", attempt+1, domain.ErrProviderUnavailable)
		}

		e.logger.Warn("embedding request rate limited, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", e.retryDelay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.retryDelay):
		}
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}

	for i, v := range vectors {
		if err := Validate(v, e.dimension); err != nil {
			return nil, fmt.Errorf("embedding %d of %d: %w", i+1, len(texts), err)
		}
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return string(e.model)
}

// Validate rejects empty, wrong-dimension, and all-zero vectors. A zero
// vector would silently score 0 against everything, so it is treated
// as a provider error rather than a legitimate result.
func Validate(v []float32, dimension int) error {
	if len(v) == 0 {
		return fmt.Errorf("empty embedding vector: %w", domain.ErrProviderUnavailable)
	}
	if len(v) != dimension {
		return fmt.Errorf("embedding has dimension %d, expected %d: %w", len(v), dimension, domain.ErrProviderUnavailable)
	}
	for _, x := range v {
		if x != 0 {
			return nil
		}
	}
	return fmt.Errorf("all-zero embedding vector: %w", domain.ErrProviderUnavailable)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429
	}
	return errors.Is(err, domain.ErrRateLimited)
}
