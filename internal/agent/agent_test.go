package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bankassist/banking-agent/internal/bank"
	"github.com/bankassist/banking-agent/internal/llm"
	"github.com/bankassist/banking-agent/internal/rag"
	"github.com/bankassist/banking-agent/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatScript serves canned chat completions in order, repeating the last one,
// and records every decoded request body.
type chatScript struct {
	mu        sync.Mutex
	responses []string
	requests  []llm.ChatRequest
}

func (s *chatScript) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req llm.ChatRequest
		_ = json.Unmarshal(body, &req)

		s.mu.Lock()
		s.requests = append(s.requests, req)
		idx := len(s.requests) - 1
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		resp := s.responses[idx]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}
}

func (s *chatScript) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *chatScript) request(t *testing.T, i int) llm.ChatRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Less(t, i, len(s.requests))
	return s.requests[i]
}

func stopResponse(content string) string {
	msg, _ := json.Marshal(llm.Message{Role: "assistant", Content: content})
	return fmt.Sprintf(`{"id":"resp","choices":[{"index":0,"message":%s,"finish_reason":"stop"}]}`, msg)
}

func toolCallResponse(content string, calls ...llm.ToolCall) string {
	msg, _ := json.Marshal(llm.Message{Role: "assistant", Content: content, ToolCalls: calls})
	return fmt.Sprintf(`{"id":"resp","choices":[{"index":0,"message":%s,"finish_reason":"tool_calls"}]}`, msg)
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Type: "function", Function: llm.ToolFunctionCall{Name: name, Arguments: args}}
}

func newTestClient(t *testing.T, apiURL string) *llm.Client {
	t.Helper()
	cfg := llm.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.APIURL = apiURL
	cfg.MaxRetries = 3
	cfg.RetryDelay = time.Millisecond
	cfg.RetryMaxWait = 2 * time.Millisecond
	cfg.MinInterval = 0
	client, err := llm.NewClient(cfg)
	require.NoError(t, err)
	return client
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, bank.Bootstrap(dir))
	store, err := bank.Open(dir)
	require.NoError(t, err)
	registry, err := tools.NewBankingRegistry(store, nil)
	require.NoError(t, err)
	return registry
}

// stubContext is a ContextProvider with a fixed answer. It records the last
// query it saw.
type stubContext struct {
	mu    sync.Mutex
	block string
	err   error
	query string
}

func (s *stubContext) Context(_ context.Context, query string) (string, error) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	return s.block, s.err
}

func (s *stubContext) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func TestRunTurnDirectAnswer(t *testing.T) {
	script := &chatScript{responses: []string{stopResponse("Hello! How can I help you today?")}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help you today?", outcome.FinalText)
	assert.Equal(t, 1, outcome.Iterations)
	assert.Empty(t, outcome.Trace)
	assert.False(t, outcome.Degraded)

	require.Len(t, outcome.Messages, 2)
	assert.Equal(t, "user", outcome.Messages[0].Role)
	assert.Equal(t, "hello", outcome.Messages[0].Content)
	assert.Equal(t, "assistant", outcome.Messages[1].Role)

	req := script.request(t, 0)
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Banking Customer Service")
	assert.Contains(t, req.Messages[0].Content, "get_account_details")
	assert.Len(t, req.Tools, 6)
}

func TestRunTurnSingleToolRound(t *testing.T) {
	script := &chatScript{responses: []string{
		toolCallResponse("", toolCall("call_1", "get_transaction_history", `{"account_id":"ACC001"}`)),
		stopResponse("Here are your recent transactions."),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "show my transactions"})
	require.NoError(t, err)

	assert.Equal(t, "Here are your recent transactions.", outcome.FinalText)
	assert.Equal(t, 2, outcome.Iterations)
	require.Len(t, outcome.Trace, 1)
	assert.Equal(t, "get_transaction_history", outcome.Trace[0].ToolName)
	assert.False(t, outcome.Trace[0].IsError)
	assert.Contains(t, outcome.Trace[0].Result, `"success":true`)

	// user, assistant tool request, tool result, final assistant
	require.Len(t, outcome.Messages, 4)
	assert.Equal(t, "assistant", outcome.Messages[1].Role)
	require.Len(t, outcome.Messages[1].ToolCalls, 1)
	assert.Equal(t, "tool", outcome.Messages[2].Role)
	assert.Equal(t, "call_1", outcome.Messages[2].ToolCallID)

	second := script.request(t, 1)
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestRunTurnIterationCapTerminates(t *testing.T) {
	script := &chatScript{responses: []string{
		toolCallResponse("", toolCall("call_1", "validate_account", `{"account_id":"ACC001"}`)),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 3)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "loop forever"})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Iterations)
	assert.Equal(t, 3, script.calls())
	assert.Len(t, outcome.Trace, 3)
	assert.Equal(t, capFallbackText, outcome.FinalText)
	assert.False(t, outcome.Degraded)
}

func TestRunTurnIterationCapKeepsLatestAssistantText(t *testing.T) {
	script := &chatScript{responses: []string{
		toolCallResponse("Let me check that for you.", toolCall("call_1", "validate_account", `{"account_id":"ACC001"}`)),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 2)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "loop forever"})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Iterations)
	assert.Equal(t, "Let me check that for you.", outcome.FinalText)
}

func TestRunTurnRoundAtomicity(t *testing.T) {
	script := &chatScript{responses: []string{
		toolCallResponse("",
			toolCall("call_1", "get_account_details", `{"account_id":"ACC999"}`),
			toolCall("call_2", "lookup_crypto", `{}`),
			toolCall("call_3", "get_account_details", `{"account_id":"ACC001"}`),
		),
		stopResponse("All done."),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "check everything"})
	require.NoError(t, err)

	require.Len(t, outcome.Trace, 3)
	assert.True(t, outcome.Trace[0].IsError)
	assert.True(t, outcome.Trace[1].IsError)
	assert.False(t, outcome.Trace[2].IsError)
	assert.Contains(t, outcome.Trace[2].Result, "Rajesh Kumar")

	// user, assistant request, three tool results, final assistant
	require.Len(t, outcome.Messages, 6)
	for i, wantID := range []string{"call_1", "call_2", "call_3"} {
		msg := outcome.Messages[2+i]
		assert.Equal(t, "tool", msg.Role)
		assert.Equal(t, wantID, msg.ToolCallID)
	}
}

func TestRunTurnProviderFailureDegrades(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   string
	}{
		{"rate limited", http.StatusTooManyRequests, rateLimitedText},
		{"bad request", http.StatusBadRequest, badRequestText},
		{"server error", http.StatusServiceUnavailable, unavailableText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "provider unavailable", tc.status)
			}))
			defer server.Close()

			loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 10)
			outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "hello"})
			require.NoError(t, err)

			assert.True(t, outcome.Degraded)
			assert.Equal(t, tc.want, outcome.FinalText)
			assert.Equal(t, 1, outcome.Iterations)
			assert.Empty(t, outcome.Trace)

			// The user message is preserved even on a degraded turn.
			require.Len(t, outcome.Messages, 1)
			assert.Equal(t, "user", outcome.Messages[0].Role)
		})
	}
}

func TestRunTurnRetrievalNotReadyProceeds(t *testing.T) {
	script := &chatScript{responses: []string{stopResponse("Savings accounts need Rs. 5000.")}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	// A retriever that was never built reports not-ready; the turn proceeds
	// without a context block.
	retriever := rag.NewRetriever(
		func(context.Context) ([]rag.Document, error) { return nil, nil },
		rag.NewLocalEmbedder(16),
		nil,
		rag.Config{},
	)
	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), retriever, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "minimum balance?"})
	require.NoError(t, err)

	assert.Equal(t, "Savings accounts need Rs. 5000.", outcome.FinalText)
	assert.False(t, outcome.Degraded)

	req := script.request(t, 0)
	require.GreaterOrEqual(t, len(req.Messages), 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
}

func TestRunTurnContextForProviderOnly(t *testing.T) {
	script := &chatScript{responses: []string{stopResponse("Minimum balance is Rs. 5000.")}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	retriever := &stubContext{block: "## Relevant Banking Information:\n\nDocument 1 (Score: 0.9120):\nSavings accounts require a minimum balance of Rs. 5000.\n\n"}
	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), retriever, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{UserText: "what is the minimum balance?"})
	require.NoError(t, err)

	assert.Equal(t, "what is the minimum balance?", retriever.lastQuery())

	req := script.request(t, 0)
	require.GreaterOrEqual(t, len(req.Messages), 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "system", req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "Relevant Banking Information")
	assert.Equal(t, "user", req.Messages[2].Role)

	for _, msg := range outcome.Messages {
		assert.NotEqual(t, "system", msg.Role)
	}
}

func TestRunTurnDoesNotMutateHistory(t *testing.T) {
	script := &chatScript{responses: []string{stopResponse("Your balance is Rs. 2,50,000.")}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	history := []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "Hello! How can I help?"},
	}
	snapshot := make([]llm.Message, len(history))
	copy(snapshot, history)

	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), nil, 10)
	outcome, err := loop.RunTurn(context.Background(), TurnRequest{History: history, UserText: "what is my balance?"})
	require.NoError(t, err)

	assert.Equal(t, snapshot, history)
	require.Len(t, outcome.Messages, 4)
	assert.Equal(t, "what is my balance?", outcome.Messages[2].Content)
}

func TestRunTurnRequiresDependencies(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := NewLoop(nil, registry, nil, 5).RunTurn(context.Background(), TurnRequest{UserText: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm client is required")

	client := newTestClient(t, "http://127.0.0.1:0")
	_, err = NewLoop(client, nil, nil, 5).RunTurn(context.Background(), TurnRequest{UserText: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool registry is required")
}

func TestRunTurnTraceHooks(t *testing.T) {
	script := &chatScript{responses: []string{
		toolCallResponse("", toolCall("call_1", "get_account_details", `{"account_id":"ACC001"}`)),
		stopResponse("Done."),
	}}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	retriever := &stubContext{block: "## Relevant Banking Information:\n\ncontext\n\n"}
	loop := NewLoop(newTestClient(t, server.URL), newTestRegistry(t), retriever, 10)

	var events []string
	ctx := WithTurnTrace(context.Background(), &TurnTrace{
		OnRetrieval: func(hasContext bool) {
			events = append(events, fmt.Sprintf("retrieval:%v", hasContext))
		},
		OnModelCall: func(iteration int) {
			events = append(events, fmt.Sprintf("model:%d", iteration))
		},
		OnToolResult: func(record ToolCallRecord) {
			events = append(events, "tool:"+record.ToolName)
		},
	})

	_, err := loop.RunTurn(ctx, TurnRequest{UserText: "balance for ACC001"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"retrieval:true",
		"model:1",
		"tool:get_account_details",
		"model:2",
	}, events)
}

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	prompt := buildSystemPrompt(now, []string{"get_account_details", "escalate_to_human"})

	assert.Contains(t, prompt, "Banking Customer Service AI Agent")
	assert.Contains(t, prompt, "- get_account_details")
	assert.Contains(t, prompt, "- escalate_to_human")
	assert.Contains(t, prompt, "escalate immediately")
	assert.Contains(t, prompt, "Current date/time: 2024-03-10 12:30:00")
}
