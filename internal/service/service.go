package service

import (
	"context"
	"strings"

	"github.com/bankassist/banking-agent/internal/agent"
	"github.com/bankassist/banking-agent/internal/rag"
	"github.com/bankassist/banking-agent/internal/tools"
	"github.com/bankassist/banking-agent/pkg/log"
)

// ChatService runs conversational turns against the agent loop and keeps
// conversation state in the store.
type ChatService struct {
	agent         agent.Agent
	retriever     *rag.Retriever
	registry      *tools.Registry
	conversations *ConversationManager
	model         string
}

func NewChatService(
	loop agent.Agent,
	retriever *rag.Retriever,
	registry *tools.Registry,
	conversations *ConversationManager,
	model string,
) *ChatService {
	return &ChatService{
		agent:         loop,
		retriever:     retriever,
		registry:      registry,
		conversations: conversations,
		model:         model,
	}
}

// ChatResult is one answered turn.
type ChatResult struct {
	ConversationID string                 `json:"conversation_id"`
	Language       string                 `json:"language"`
	Response       string                 `json:"response"`
	Iterations     int                    `json:"iterations"`
	ToolCalls      []agent.ToolCallRecord `json:"tool_calls"`
	Success        bool                   `json:"success"`
}

// Chat answers one user message within a conversation. The conversation's
// language is detected on its first message and rides the context so
// escalation tickets record it.
func (s *ChatService) Chat(ctx context.Context, conversationID, message string) (*ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, NewError(ErrValidation, "message is required")
	}
	if conversationID == "" {
		conversationID = DefaultConversationID
	}

	history, language, err := s.conversations.History(ctx, conversationID)
	if err != nil {
		return nil, WrapError(err, ErrStore, "failed to load conversation").
			WithContext("conversation_id", conversationID)
	}
	if language == "" {
		language = DetectLanguage(message)
		log.Info("Detected conversation language %q for %s", language, conversationID)
	}
	ctx = tools.WithTicketLanguage(ctx, language)

	outcome, err := s.agent.RunTurn(ctx, agent.TurnRequest{History: history, UserText: message})
	if err != nil {
		return nil, WrapError(err, ErrUnknown, "agent turn failed").
			WithContext("conversation_id", conversationID)
	}

	// Degraded turns are not remembered, matching the original assistant:
	// the next attempt starts from the last good state.
	if !outcome.Degraded {
		if err := s.conversations.Update(ctx, conversationID, language, outcome.Messages); err != nil {
			log.Error("Failed to persist conversation %s: %v", conversationID, err)
		}
	}

	return &ChatResult{
		ConversationID: conversationID,
		Language:       language,
		Response:       outcome.FinalText,
		Iterations:     outcome.Iterations,
		ToolCalls:      outcome.Trace,
		Success:        !outcome.Degraded,
	}, nil
}

// StreamEvent is one server-sent progress event during a streamed turn.
type StreamEvent struct {
	Type string         `json:"-"`
	Data map[string]any `json:"-"`
}

// ChatStream runs Chat while reporting progress through emit: a `retrieval`
// event after the retrieval phase, a `tool` event per executed tool, and a
// `final` event carrying the answer.
func (s *ChatService) ChatStream(ctx context.Context, conversationID, message string, emit func(StreamEvent)) (*ChatResult, error) {
	ctx = agent.WithTurnTrace(ctx, &agent.TurnTrace{
		OnRetrieval: func(hasContext bool) {
			emit(StreamEvent{Type: "retrieval", Data: map[string]any{
				"context_found": hasContext,
			}})
		},
		OnToolResult: func(record agent.ToolCallRecord) {
			emit(StreamEvent{Type: "tool", Data: map[string]any{
				"name":     record.ToolName,
				"is_error": record.IsError,
			}})
		},
	})

	result, err := s.Chat(ctx, conversationID, message)
	if err != nil {
		return nil, err
	}
	emit(StreamEvent{Type: "final", Data: map[string]any{
		"response":   result.Response,
		"iterations": result.Iterations,
		"success":    result.Success,
	}})
	return result, nil
}

// Reset clears a conversation's stored history.
func (s *ChatService) Reset(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		conversationID = DefaultConversationID
	}
	if err := s.conversations.Reset(ctx, conversationID); err != nil {
		return WrapError(err, ErrStore, "failed to reset conversation").
			WithContext("conversation_id", conversationID)
	}
	log.Info("Conversation %s reset", conversationID)
	return nil
}

// RAGReady reports whether the retrieval index is built and serving.
func (s *ChatService) RAGReady() bool {
	return s.retriever != nil && s.retriever.Ready()
}

// AgentReady reports whether the agent loop is wired.
func (s *ChatService) AgentReady() bool {
	return s.agent != nil
}

// Model names the configured chat model.
func (s *ChatService) Model() string {
	return s.model
}

// ToolNames lists the registered tools in registration order.
func (s *ChatService) ToolNames() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.List()
}

// ConversationCount reports how many conversations are stored.
func (s *ChatService) ConversationCount(ctx context.Context) (int, error) {
	return s.conversations.Count(ctx)
}
