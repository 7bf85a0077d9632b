package persistence

import (
	"time"

	"github.com/bankassist/banking-agent/internal/llm"
)

type ConversationRecord struct {
	ID        string
	Language  string
	Messages  []llm.Message
	UpdatedAt time.Time
}
