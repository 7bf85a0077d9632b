package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ticket is an escalation record handed to a human agent
type Ticket struct {
	TicketID  string    `json:"ticket_id"`
	AccountID string    `json:"account_id"`
	Reason    string    `json:"reason"`
	Language  string    `json:"language,omitempty"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketRecorder persists escalation tickets for the audit trail
type TicketRecorder interface {
	SaveTicket(ctx context.Context, ticket Ticket) error
}

type contextKey int

const languageContextKey contextKey = iota

// WithTicketLanguage tags ctx with the conversation's detected language so
// escalation tickets created further down the call stack record it.
func WithTicketLanguage(ctx context.Context, language string) context.Context {
	return context.WithValue(ctx, languageContextKey, language)
}

// TicketLanguage reads the language tagged by WithTicketLanguage, if any.
func TicketLanguage(ctx context.Context) string {
	if language, ok := ctx.Value(languageContextKey).(string); ok {
		return language
	}
	return ""
}

// EscalateTool hands a conversation over to a human agent. The ticket is
// synthesized here; there is no queue behind it, only an audit record when
// a recorder is attached.
type EscalateTool struct {
	recorder TicketRecorder
	now      func() time.Time
}

// NewEscalateTool creates the escalation tool. recorder may be nil.
func NewEscalateTool(recorder TicketRecorder) *EscalateTool {
	return &EscalateTool{recorder: recorder, now: time.Now}
}

func (t *EscalateTool) Name() string {
	return "escalate_to_human"
}

func (t *EscalateTool) Description() string {
	return "Escalate a customer query to a human agent when automated resolution is not possible"
}

func (t *EscalateTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {
				"type": "string",
				"description": "The customer's account ID"
			},
			"reason": {
				"type": "string",
				"description": "Reason for escalation"
			}
		},
		"required": ["account_id", "reason"]
	}`)
}

type escalateArgs struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

func (t *EscalateTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var escArgs escalateArgs
	if err := json.Unmarshal(args, &escArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}

	now := t.now()
	ticketID := fmt.Sprintf("TKT%s-%s", now.Format("20060102150405"), uuid.NewString()[:8])

	ticket := Ticket{
		TicketID:  ticketID,
		AccountID: escArgs.AccountID,
		Reason:    escArgs.Reason,
		Language:  TicketLanguage(ctx),
		Priority:  "high",
		CreatedAt: now,
	}

	if t.recorder != nil {
		if err := t.recorder.SaveTicket(ctx, ticket); err != nil {
			return ToolResult{}, fmt.Errorf("failed to record ticket: %w", err)
		}
	}

	return jsonResult(struct {
		Success   bool   `json:"success"`
		TicketID  string `json:"ticket_id"`
		AccountID string `json:"account_id"`
		Reason    string `json:"reason"`
		Status    string `json:"status"`
		Message   string `json:"message"`
		Priority  string `json:"priority"`
	}{
		Success:   true,
		TicketID:  ticketID,
		AccountID: escArgs.AccountID,
		Reason:    escArgs.Reason,
		Status:    "Created",
		Message:   fmt.Sprintf("Your request has been escalated. Ticket ID: %s. A human agent will contact you within 2 hours.", ticketID),
		Priority:  "high",
	})
}
