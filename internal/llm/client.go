package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is an HTTP client for OpenAI-compatible chat completion APIs
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a new LLM client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		baseURL: strings.TrimSuffix(config.APIURL, "/"),
	}, nil
}

// ChatCompletion sends a single-prompt completion request
func (c *Client) ChatCompletion(ctx context.Context, prompt string, opts *ChatCompletionOptions) (*ChatResponse, error) {
	if opts == nil {
		opts = NewChatCompletionOptions()
	}

	messages := []Message{{Role: "user", Content: prompt}}
	return c.ChatCompletionWithMessages(ctx, messages, opts)
}

// ChatCompletionWithMessages sends a completion request over a full message
// history. Tool definitions from opts are forwarded so the model may answer
// with tool calls instead of text.
func (c *Client) ChatCompletionWithMessages(ctx context.Context, messages []Message, opts *ChatCompletionOptions) (*ChatResponse, error) {
	if opts == nil {
		opts = NewChatCompletionOptions()
	}

	if opts.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: opts.SystemPrompt}}, messages...)
	}

	chatReq := &ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Tools:       opts.Tools,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	var chatResp *ChatResponse
	err := c.withRetry(ctx, func() error {
		var reqErr error
		chatResp, reqErr = c.doChatRequest(ctx, chatReq)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	return chatResp, nil
}

// CreateEmbeddings returns one vector per input string, in input order
func (c *Client) CreateEmbeddings(ctx context.Context, input []string) ([][]float64, error) {
	embReq := &EmbeddingRequest{
		Model: c.config.EmbeddingModel,
		Input: input,
	}

	var vectors [][]float64
	err := c.withRetry(ctx, func() error {
		body, reqErr := c.postJSON(ctx, "/embeddings", embReq)
		if reqErr != nil {
			return reqErr
		}

		var embResp EmbeddingResponse
		if reqErr := json.Unmarshal(body, &embResp); reqErr != nil {
			return fmt.Errorf("failed to parse response: %w", reqErr)
		}
		if embResp.Error != nil {
			return embResp.Error
		}
		if len(embResp.Data) != len(input) {
			return fmt.Errorf("expected %d embeddings, got %d", len(input), len(embResp.Data))
		}

		vectors = make([][]float64, len(input))
		for _, d := range embResp.Data {
			if d.Index < 0 || d.Index >= len(input) {
				return fmt.Errorf("embedding index %d out of range", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Client) doChatRequest(ctx context.Context, chatReq *ChatRequest) (*ChatResponse, error) {
	body, err := c.postJSON(ctx, "/chat/completions", chatReq)
	if err != nil {
		return nil, err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, chatResp.Error
	}
	if len(chatResp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &chatResp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// withRetry runs fn with bounded attempts. Rate limits, server errors and
// transport failures are retried with exponential backoff and jitter;
// everything else fails immediately.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.backoffDelay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		c.throttle()

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries, lastErr)
}

// backoffDelay doubles the base delay per completed attempt, adds up to one
// second of jitter and clamps the result at RetryMaxWait.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.config.RetryDelay << (attempt - 1)
	delay += time.Duration(rand.Int63n(int64(time.Second)))
	if c.config.RetryMaxWait > 0 && delay > c.config.RetryMaxWait {
		delay = c.config.RetryMaxWait
	}
	return delay
}

// throttle spaces consecutive provider calls at least MinInterval apart.
// Concurrent callers queue on the mutex so the spacing holds across goroutines.
func (c *Client) throttle() {
	if c.config.MinInterval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.config.MinInterval - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ErrNoChoices is returned when the provider answers 200 with an empty
// choice list.
var ErrNoChoices = errors.New("no choices in response")

// HTTPError is returned when the API answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed on a later attempt
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRateLimited reports whether err ultimately stems from provider throttling
func IsRateLimited(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}

// IsInvalidArgument reports whether the provider rejected the request payload
func IsInvalidArgument(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusBadRequest
	}
	var apiErr *Error
	return errors.As(err, &apiErr) && (apiErr.Code == "invalid_argument" || apiErr.Type == "invalid_request_error")
}
