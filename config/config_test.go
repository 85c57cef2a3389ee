package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Less(t, cfg.Retrieve.DeepSearchThreshold, cfg.Retrieve.SimilarityThreshold,
		"preliminary deep-search pass must be more permissive than final filtering")
	assert.Less(t, cfg.Chunking.ChunkOverlap, cfg.Chunking.ChunkSize)
}

func TestValidateRejectsOverlapNotBelowSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docchat.yaml")
	content := `
chunking:
  chunk_size: 500
  chunk_overlap: 50
retrieve:
  top_k: 5
  deep_search_threshold: 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieve.TopK)
	assert.Equal(t, 0.05, cfg.Retrieve.DeepSearchThreshold)
	// untouched values keep their defaults
	assert.Equal(t, DefaultConfig().Embedding.Model, cfg.Embedding.Model)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking:\n  chunk_size: 100\n  chunk_overlap: 100\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoadFromDirFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
