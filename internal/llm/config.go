package llm

import (
	"fmt"
	"time"
)

// Config holds the configuration for the LLM client
type Config struct {
	APIKey         string
	APIURL         string
	Model          string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
	MaxRetries     int           // Attempts per request before giving up
	RetryDelay     time.Duration // Base delay for exponential backoff
	RetryMaxWait   time.Duration // Upper bound on a single backoff sleep
	MinInterval    time.Duration // Minimum gap between consecutive requests
	EmbeddingModel string
	SiteURL        string // Optional: for OpenRouter rankings
	AppName        string // Optional: for OpenRouter rankings
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIURL:         "https://openrouter.ai/api/v1",
		Model:          "google/gemini-2.5-flash",
		MaxTokens:      1000,
		Temperature:    0.7,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		RetryMaxWait:   8 * time.Second,
		MinInterval:    1500 * time.Millisecond,
		EmbeddingModel: "text-embedding-3-small",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

// GetHeaders returns the HTTP headers for API requests
func (c *Config) GetHeaders() map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + c.APIKey,
		"Content-Type":  "application/json",
	}

	if c.SiteURL != "" {
		headers["HTTP-Referer"] = c.SiteURL
	}
	if c.AppName != "" {
		headers["X-Title"] = c.AppName
	}

	return headers
}
