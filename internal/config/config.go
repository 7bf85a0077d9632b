package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Server Configuration:
// - BACKEND_HOST: HTTP listen host (default: 0.0.0.0)
// - BACKEND_PORT: HTTP listen port (default: 8000)
//
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: OpenAI-compatible API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: google/gemini-2.5-flash)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 1000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
// - LLM_MAX_RETRIES: Provider call attempts before degrading (default: 3)
// - LLM_RETRY_DELAY: Base backoff delay in seconds (default: 2)
// - LLM_RETRY_MAX_WAIT: Backoff cap in seconds (default: 8)
// - LLM_MIN_INTERVAL_MS: Minimum gap between provider calls (default: 1500)
//
// Embedding Configuration:
// - EMBEDDING_PROVIDER: "local" or "openai" (default: local)
// - EMBEDDING_MODEL: Provider embedding model (default: text-embedding-3-small)
// - EMBEDDING_DIMENSION: Vector width for the local embedder (default: 768)
//
// Retrieval Configuration:
// - RAG_CHUNK_SIZE: Corpus chunk size in characters (default: 800)
// - RAG_CHUNK_OVERLAP: Overlap between chunks (default: 200)
// - RAG_TOP_K: Snippets retrieved per query (default: 5)
// - RAG_BUILD_CONCURRENCY: Parallel embedding workers at build (default: 4)
//
// Agent Configuration:
// - AGENT_MAX_ITERATIONS: Max reasoning rounds per turn (default: 10)
// - AGENT_HISTORY_WINDOW: Messages kept per conversation (default: 6)
//
// Data / Store Configuration:
// - DATA_DIR: Fixture and corpus directory (default: ./data)
// - DB_PATH: SQLite database path (default: <DATA_DIR>/bankassist.db)
//
// Maintenance Configuration:
// - MAINTENANCE_CRON: Standard cron spec for housekeeping (default: @hourly)
// - CONVERSATION_TTL_MINUTES: Idle conversation lifetime (default: 1440)
//
// Logging:
// - LOG_LEVEL: debug|info|warn|error|fatal (default: info)
// - LOG_FILE: Optional log file path (default: stdout)

type Config struct {
	Server      ServerConfig      `json:"server"`
	LLM         LLMConfig         `json:"llm"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	RAG         RAGConfig         `json:"rag"`
	Agent       AgentConfig       `json:"agent"`
	Data        DataConfig        `json:"data"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	Log         LogConfig         `json:"log"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig holds the configuration for the chat-completion client
// Supports any OpenAI-compatible provider (OpenRouter, OpenAI, etc.)
type LLMConfig struct {
	APIKey        string  `json:"api_key"`
	APIURL        string  `json:"api_url"`
	Model         string  `json:"model"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	Timeout       int     `json:"timeout"`
	MaxRetries    int     `json:"max_retries"`
	RetryDelay    int     `json:"retry_delay"`
	RetryMaxWait  int     `json:"retry_max_wait"`
	MinIntervalMs int     `json:"min_interval_ms"`
}

// EmbeddingConfig selects and configures the embedding provider
type EmbeddingConfig struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// RAGConfig holds the retrieval tuning knobs
type RAGConfig struct {
	ChunkSize        int `json:"chunk_size"`
	ChunkOverlap     int `json:"chunk_overlap"`
	TopK             int `json:"top_k"`
	BuildConcurrency int `json:"build_concurrency"`
}

// AgentConfig holds the configuration for the reasoning loop
type AgentConfig struct {
	MaxIterations int `json:"max_iterations"` // Max tool calling iterations per turn
	HistoryWindow int `json:"history_window"` // Messages kept per conversation
}

// DataConfig holds fixture and store locations
type DataConfig struct {
	Dir    string `json:"dir"`
	DBPath string `json:"db_path"`
}

// MaintenanceConfig holds the housekeeping schedule
type MaintenanceConfig struct {
	CronExpr           string `json:"cron_expr"`
	ConversationTTLMin int    `json:"conversation_ttl_minutes"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("DATA_DIR", "./data")

	config := &Config{
		Server: ServerConfig{
			Host: getEnvString("BACKEND_HOST", "0.0.0.0"),
			Port: getEnvInt("BACKEND_PORT", 8000),
		},
		LLM: LLMConfig{
			APIKey:        getEnvString("LLM_API_KEY", ""),
			APIURL:        getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:         getEnvString("LLM_MODEL", "google/gemini-2.5-flash"),
			MaxTokens:     getEnvInt("LLM_MAX_TOKENS", 1000),
			Temperature:   getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:       getEnvInt("LLM_TIMEOUT", 30),
			MaxRetries:    getEnvInt("LLM_MAX_RETRIES", 3),
			RetryDelay:    getEnvInt("LLM_RETRY_DELAY", 2),
			RetryMaxWait:  getEnvInt("LLM_RETRY_MAX_WAIT", 8),
			MinIntervalMs: getEnvInt("LLM_MIN_INTERVAL_MS", 1500),
		},
		Embedding: EmbeddingConfig{
			Provider:  getEnvString("EMBEDDING_PROVIDER", "local"),
			Model:     getEnvString("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 768),
		},
		RAG: RAGConfig{
			ChunkSize:        getEnvInt("RAG_CHUNK_SIZE", 800),
			ChunkOverlap:     getEnvInt("RAG_CHUNK_OVERLAP", 200),
			TopK:             getEnvInt("RAG_TOP_K", 5),
			BuildConcurrency: getEnvInt("RAG_BUILD_CONCURRENCY", 4),
		},
		Agent: AgentConfig{
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 10),
			HistoryWindow: getEnvInt("AGENT_HISTORY_WINDOW", 6),
		},
		Data: DataConfig{
			Dir:    dataDir,
			DBPath: getEnvString("DB_PATH", dataDir+"/bankassist.db"),
		},
		Maintenance: MaintenanceConfig{
			CronExpr:           getEnvString("MAINTENANCE_CRON", "@hourly"),
			ConversationTTLMin: getEnvInt("CONVERSATION_TTL_MINUTES", 1440),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be at least 1")
	}
	if c.RAG.ChunkSize <= c.RAG.ChunkOverlap {
		return fmt.Errorf("RAG_CHUNK_SIZE must be greater than RAG_CHUNK_OVERLAP")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
