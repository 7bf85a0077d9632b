package agent

import (
	"github.com/bankassist/banking-agent/internal/llm"
)

// TurnRequest carries one user turn into the reasoning loop.
type TurnRequest struct {
	// History is the conversation so far. The loop never mutates it.
	History []llm.Message

	// UserText is the new user message for this turn.
	UserText string
}

// LoopOutcome is the result of one completed turn.
type LoopOutcome struct {
	// FinalText is the assistant's answer. Always non-empty: degraded and
	// cap-terminated turns carry a fallback text.
	FinalText string

	// Trace records every tool call executed during the turn, in order.
	Trace []ToolCallRecord

	// Iterations is the number of model calls made.
	Iterations int

	// Messages is the new conversation: history plus the user message plus
	// everything the turn appended. Provider-only system messages are not
	// included.
	Messages []llm.Message

	// Degraded is set when the provider failed past its retry budget and
	// FinalText is a canned apology.
	Degraded bool
}

// ToolCallRecord records a single tool call and its result.
type ToolCallRecord struct {
	// ToolName is the name of the tool that was called.
	ToolName string

	// Arguments is the JSON arguments passed to the tool.
	Arguments string

	// Result is the output from the tool.
	Result string

	// IsError indicates if the tool execution resulted in an error.
	IsError bool
}
