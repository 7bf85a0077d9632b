package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.APIURL)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 1500, cfg.LLM.MinIntervalMs)

	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 768, cfg.Embedding.Dimension)

	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)

	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.Equal(t, 6, cfg.Agent.HistoryWindow)

	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "./data/bankassist.db", cfg.Data.DBPath)

	assert.Equal(t, "@hourly", cfg.Maintenance.CronExpr)
	assert.Equal(t, 1440, cfg.Maintenance.ConversationTTLMin)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("BACKEND_PORT", "9090")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")
	t.Setenv("RAG_TOP_K", "2")
	t.Setenv("DATA_DIR", "/tmp/bankdata")
	t.Setenv("EMBEDDING_PROVIDER", "openai")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 2, cfg.RAG.TopK)
	assert.Equal(t, "/tmp/bankdata", cfg.Data.Dir)
	assert.Equal(t, "/tmp/bankdata/bankassist.db", cfg.Data.DBPath)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestNewFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY is required")
}

func TestNewFromEnvInvalidChunking(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("RAG_CHUNK_SIZE", "100")
	t.Setenv("RAG_CHUNK_OVERLAP", "200")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAG_CHUNK_SIZE")
}

func TestNewFromEnvInvalidIntFallsBack(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("BACKEND_PORT", "not-a-number")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestNewFromEnvOptions(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Agent.MaxIterations = 1
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Agent.MaxIterations)
}
