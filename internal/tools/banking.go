package tools

import (
	"github.com/bankassist/banking-agent/internal/bank"
)

// NewBankingRegistry wires the full banking toolkit in its canonical order.
// recorder may be nil when no audit store is attached.
func NewBankingRegistry(store *bank.Store, recorder TicketRecorder) (*Registry, error) {
	registry := NewRegistry()

	toolkit := []Tool{
		NewAccountDetailsTool(store),
		NewTransactionHistoryTool(store),
		NewBranchFinderTool(store),
		NewLoanEligibilityTool(store),
		NewEscalateTool(recorder),
		NewValidateAccountTool(store),
	}
	for _, tool := range toolkit {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
