package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"docchat/internal/domain"
)

// Config holds all configuration for docchat. Loaded once at startup
// and passed by value into constructors; never mutated afterwards.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Context   ContextConfig   `yaml:"context"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig bounds passage size in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrieveConfig tunes the retrieval pipeline. SimilarityThreshold
// filters the final over-fetch search; DeepSearchThreshold is the more
// permissive bound for the preliminary deep-search pass. The two are
// independent tunables.
type RetrieveConfig struct {
	TopK                int     `yaml:"top_k"`
	PoolSize            int     `yaml:"pool_size"`
	MMRLambda           float64 `yaml:"mmr_lambda"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	DeepSearchThreshold float64 `yaml:"deep_search_threshold"`
}

// ContextConfig bounds assembled context in characters. DeepSearchBudget
// applies to the compact block fed back into HyDE during deep search.
type ContextConfig struct {
	CharBudget       int `yaml:"char_budget"`
	DeepSearchBudget int `yaml:"deep_search_budget"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Dimension         int     `yaml:"dimension"`
	BatchSize         int     `yaml:"batch_size"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelayMS      int     `yaml:"retry_delay_ms"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LLMConfig holds the chat model settings, shared by HyDE drafting and
// final answer generation.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float32 `yaml:"temperature"`
}

// IngestConfig selects files for directory ingestion.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:                10,
			PoolSize:            50,
			MMRLambda:           0.5,
			SimilarityThreshold: 0.3,
			DeepSearchThreshold: 0.15,
		},
		Context: ContextConfig{
			CharBudget:       8000,
			DeepSearchBudget: 2000,
		},
		Embedding: EmbeddingConfig{
			Model:             "text-embedding-3-small",
			APIKeyEnv:         "OPENAI_API_KEY",
			Dimension:         1536,
			BatchSize:         100,
			MaxRetries:        3,
			RetryDelayMS:      1000,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.2,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/.docchat/**"},
		},
		Logging: LoggingConfig{
			Env:   "local",
			Level: "info",
		},
	}
}

// Validate rejects parameter combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive: %w", domain.ErrConfiguration)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size): %w", domain.ErrConfiguration)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive: %w", domain.ErrConfiguration)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be in [0, 1]: %w", domain.ErrConfiguration)
	}
	if c.Context.CharBudget <= 0 {
		return fmt.Errorf("context.char_budget must be positive: %w", domain.ErrConfiguration)
	}
	return nil
}

// RetryDelay returns the embedding retry delay as a duration.
func (c *EmbeddingConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// Load loads configuration from a YAML file, layered over defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// docchat.yaml, then .docchat/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the corpus database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".docchat", "index.db")
}

// EnsureDataDir ensures the .docchat directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".docchat"), 0755)
}
