package agent

import (
	"fmt"
	"strings"
	"time"
)

// buildSystemPrompt renders the assistant's standing instructions. Built
// fresh every turn so the current date stays accurate.
func buildSystemPrompt(now time.Time, toolNames []string) string {
	var b strings.Builder
	b.WriteString("You are an expert Banking Customer Service AI Agent.\n\n")
	b.WriteString("## Responsibilities:\n")
	b.WriteString("- Answer customer banking queries professionally\n")
	b.WriteString("- Use context from the knowledge base\n")
	b.WriteString("- Use tools when required:\n")
	for _, name := range toolNames {
		fmt.Fprintf(&b, "    - %s\n", name)
	}
	b.WriteString("\n## Rules:\n")
	b.WriteString("- Be concise, accurate, professional.\n")
	b.WriteString("- Never hallucinate account balances or transaction info.\n")
	b.WriteString("- If the user asks account-related queries, use tools.\n")
	b.WriteString("- If fraud or an unauthorized transaction is mentioned, escalate immediately.\n")
	b.WriteString("- If you cannot answer, ask a clarifying question.\n\n")
	fmt.Fprintf(&b, "Current date/time: %s\n", now.Format("2006-01-02 15:04:05"))
	return b.String()
}
