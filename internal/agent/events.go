package agent

import (
	"context"
)

// TurnTrace carries optional per-turn observation hooks, attached to the
// request context the way net/http/httptrace attaches ClientTrace. Hooks run
// synchronously on the loop goroutine; nil hooks are skipped.
type TurnTrace struct {
	// OnRetrieval fires after the retrieval phase. hasContext reports
	// whether a context block was obtained.
	OnRetrieval func(hasContext bool)

	// OnModelCall fires before each model call with the 1-based iteration.
	OnModelCall func(iteration int)

	// OnToolResult fires after each tool invocation completes.
	OnToolResult func(record ToolCallRecord)
}

type traceContextKey int

const turnTraceKey traceContextKey = iota

// WithTurnTrace returns a context carrying the trace for one turn.
func WithTurnTrace(ctx context.Context, trace *TurnTrace) context.Context {
	return context.WithValue(ctx, turnTraceKey, trace)
}

// ContextTurnTrace returns the trace associated with ctx, or nil.
func ContextTurnTrace(ctx context.Context) *TurnTrace {
	if trace, ok := ctx.Value(turnTraceKey).(*TurnTrace); ok {
		return trace
	}
	return nil
}

func (t *TurnTrace) retrieval(hasContext bool) {
	if t != nil && t.OnRetrieval != nil {
		t.OnRetrieval(hasContext)
	}
}

func (t *TurnTrace) modelCall(iteration int) {
	if t != nil && t.OnModelCall != nil {
		t.OnModelCall(iteration)
	}
}

func (t *TurnTrace) toolResult(record ToolCallRecord) {
	if t != nil && t.OnToolResult != nil {
		t.OnToolResult(record)
	}
}
