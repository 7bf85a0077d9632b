package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bankassist/banking-agent/internal/llm"
	"github.com/bankassist/banking-agent/internal/tools"
	"github.com/bankassist/banking-agent/pkg/log"
)

// Canned terminal texts. Provider failures and the iteration cap never leak
// raw errors to the user.
const (
	rateLimitedText = "I'm experiencing high demand right now. Please wait a few seconds and try your question again. I apologize for the inconvenience."
	badRequestText  = "I encountered an issue processing your request. Could you please rephrase your question?"
	unavailableText = "I'm temporarily unable to process your request. Please try again in a moment."
	capFallbackText = "I wasn't able to complete your request. Please contact a human agent for further assistance."
)

// state tracks the loop through one turn.
type state int

const (
	stateStart state = iota
	stateRetrieving
	stateAwaitingModel
	stateExecutingTools
	stateDone
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateRetrieving:
		return "Retrieving"
	case stateAwaitingModel:
		return "AwaitingModel"
	case stateExecutingTools:
		return "ExecutingTools"
	case stateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ContextProvider supplies the retrieval context block for a query.
type ContextProvider interface {
	Context(ctx context.Context, query string) (string, error)
}

// Agent runs one conversational turn.
type Agent interface {
	RunTurn(ctx context.Context, req TurnRequest) (*LoopOutcome, error)
}

// Loop is the tool-calling reasoning loop. It holds no per-request state, so
// one Loop serves concurrent turns.
type Loop struct {
	client        *llm.Client
	registry      *tools.Registry
	retriever     ContextProvider
	maxIterations int
	now           func() time.Time
}

// NewLoop wires the loop to its model client, tool registry and retriever.
// A nil retriever disables context retrieval.
func NewLoop(client *llm.Client, registry *tools.Registry, retriever ContextProvider, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &Loop{
		client:        client,
		registry:      registry,
		retriever:     retriever,
		maxIterations: maxIterations,
		now:           time.Now,
	}
}

// RunTurn executes one user turn to completion. The error return is reserved
// for construction mistakes; provider, tool and retrieval failures all fold
// into a well-formed LoopOutcome.
func (l *Loop) RunTurn(ctx context.Context, req TurnRequest) (*LoopOutcome, error) {
	if l.client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if l.registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}

	outcome := &LoopOutcome{Trace: make([]ToolCallRecord, 0)}

	// Work on a copy; the caller's history is never touched.
	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: req.UserText})

	opts := llm.NewChatCompletionOptions().
		WithSystemPrompt(buildSystemPrompt(l.now(), l.registry.List())).
		WithTools(l.registry.Specs())

	var (
		contextBlock      string
		pending           []llm.ToolCall
		lastAssistantText string
	)
	trace := ContextTurnTrace(ctx)

	for st := stateStart; st != stateDone; {
		switch st {
		case stateStart:
			st = stateRetrieving

		case stateRetrieving:
			contextBlock = l.retrieveContext(ctx, req.UserText)
			trace.retrieval(contextBlock != "")
			st = stateAwaitingModel

		case stateAwaitingModel:
			if outcome.Iterations >= l.maxIterations {
				log.Warn("Agent loop reached iteration cap (%d)", l.maxIterations)
				outcome.FinalText = lastAssistantText
				if outcome.FinalText == "" {
					outcome.FinalText = capFallbackText
				}
				st = stateDone
				continue
			}
			outcome.Iterations++
			trace.modelCall(outcome.Iterations)

			resp, err := l.client.ChatCompletionWithMessages(ctx, providerMessages(contextBlock, messages), opts)
			if err != nil {
				log.Error("Model call failed at iteration %d: %v", outcome.Iterations, err)
				outcome.FinalText = degradedText(err)
				outcome.Degraded = true
				st = stateDone
				continue
			}

			choice := resp.Choices[0]
			if choice.FinishReason == "tool_calls" && len(choice.Message.ToolCalls) > 0 {
				if choice.Message.Content != "" {
					lastAssistantText = choice.Message.Content
				}
				messages = append(messages, choice.Message)
				pending = choice.Message.ToolCalls
				st = stateExecutingTools
				continue
			}
			// Final answer, or a finish reason we treat as one.
			messages = append(messages, choice.Message)
			outcome.FinalText = choice.Message.Content
			st = stateDone

		case stateExecutingTools:
			// Every requested invocation in the round runs; failures become
			// failure results rather than aborting the rest.
			for _, call := range pending {
				result := l.registry.Invoke(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
				record := ToolCallRecord{
					ToolName:  call.Function.Name,
					Arguments: call.Function.Arguments,
					Result:    result.Content,
					IsError:   result.IsError,
				}
				outcome.Trace = append(outcome.Trace, record)
				trace.toolResult(record)
				messages = append(messages, llm.Message{
					Role:       "tool",
					Content:    result.Content,
					ToolCallID: call.ID,
				})
				log.Info("Tool %s executed: error=%v", call.Function.Name, result.IsError)
			}
			pending = nil
			st = stateAwaitingModel
		}
	}

	outcome.Messages = messages
	return outcome, nil
}

// retrieveContext asks the retriever for a context block. Retrieval is
// best-effort: any failure logs and the turn proceeds without context.
func (l *Loop) retrieveContext(ctx context.Context, query string) string {
	if l.retriever == nil {
		return ""
	}
	block, err := l.retriever.Context(ctx, query)
	if err != nil {
		log.Warn("Context retrieval unavailable, proceeding without it: %v", err)
		return ""
	}
	return block
}

// providerMessages prepends the retrieval context as a system message for the
// provider call only. The returned conversation never carries it.
func providerMessages(contextBlock string, messages []llm.Message) []llm.Message {
	if contextBlock == "" {
		return messages
	}
	withContext := make([]llm.Message, 0, len(messages)+1)
	withContext = append(withContext, llm.Message{Role: "system", Content: contextBlock})
	return append(withContext, messages...)
}

func degradedText(err error) string {
	switch {
	case llm.IsRateLimited(err):
		return rateLimitedText
	case llm.IsInvalidArgument(err):
		return badRequestText
	default:
		return unavailableText
	}
}
