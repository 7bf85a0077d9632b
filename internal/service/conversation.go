package service

import (
	"context"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/bankassist/banking-agent/internal/llm"
	"github.com/bankassist/banking-agent/internal/persistence"
	"github.com/google/uuid"
)

// DefaultConversationID is used when the caller does not name a conversation.
const DefaultConversationID = "default"

// ConversationStore is the persistence surface the manager needs.
type ConversationStore interface {
	SaveConversation(ctx context.Context, record persistence.ConversationRecord) error
	GetConversation(ctx context.Context, id string) (persistence.ConversationRecord, bool, error)
	DeleteConversation(ctx context.Context, id string) error
	CountConversations(ctx context.Context) (int, error)
}

// ConversationManager keeps per-conversation history windows in the store.
type ConversationManager struct {
	store  ConversationStore
	window int
}

// NewConversationManager creates a manager keeping the last window messages
// per conversation (default 6, matching the assistant's short memory).
func NewConversationManager(store ConversationStore, window int) *ConversationManager {
	if window <= 0 {
		window = 6
	}
	return &ConversationManager{store: store, window: window}
}

// History returns the stored messages and detected language for id. Unknown
// conversations return empty history with no error.
func (m *ConversationManager) History(ctx context.Context, id string) ([]llm.Message, string, error) {
	record, ok, err := m.store.GetConversation(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", nil
	}
	return record.Messages, record.Language, nil
}

// Update persists the conversation trimmed to the history window.
func (m *ConversationManager) Update(ctx context.Context, id, language string, messages []llm.Message) error {
	return m.store.SaveConversation(ctx, persistence.ConversationRecord{
		ID:        id,
		Language:  language,
		Messages:  trimWindow(messages, m.window),
		UpdatedAt: time.Now().UTC(),
	})
}

// Reset forgets the conversation.
func (m *ConversationManager) Reset(ctx context.Context, id string) error {
	return m.store.DeleteConversation(ctx, id)
}

// Count reports how many conversations the store holds.
func (m *ConversationManager) Count(ctx context.Context) (int, error) {
	return m.store.CountConversations(ctx)
}

// NewConversationID mints an identifier for a fresh conversation.
func NewConversationID() string {
	return "conv-" + uuid.NewString()
}

// trimWindow keeps the last window messages. Tool results whose requesting
// assistant message fell outside the window are dropped too, so the kept
// sequence always starts on a user or assistant message.
func trimWindow(messages []llm.Message, window int) []llm.Message {
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	for len(messages) > 0 && messages[0].Role == "tool" {
		messages = messages[1:]
	}
	return messages
}

// DetectLanguage names the language of text ("English", "Hindi", ...).
// Unreliable detections, common on very short inputs, fall back to English.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "English"
	}
	return info.Lang.String()
}
