package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docchat/config"
)

func TestQueryRetrieveConfigLeavesLoadedConfigUntouched(t *testing.T) {
	origCfg, origTopK := cfg, queryTopK
	t.Cleanup(func() { cfg, queryTopK = origCfg, origTopK })

	cfg = config.DefaultConfig()
	queryTopK = 5

	rc := queryRetrieveConfig()
	assert.Equal(t, 5, rc.TopK)
	assert.Equal(t, 10, cfg.Retrieve.TopK)

	queryTopK = 0
	rc = queryRetrieveConfig()
	assert.Equal(t, 10, rc.TopK)
}
