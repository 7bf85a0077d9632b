package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bankassist/banking-agent/internal/bank"
)

const maxTransactionsReturned = 10

// TransactionHistoryTool lists recent ledger entries for an account
type TransactionHistoryTool struct {
	store *bank.Store
	now   func() time.Time
}

// NewTransactionHistoryTool creates the transaction history tool
func NewTransactionHistoryTool(store *bank.Store) *TransactionHistoryTool {
	return &TransactionHistoryTool{store: store, now: time.Now}
}

func (t *TransactionHistoryTool) Name() string {
	return "get_transaction_history"
}

func (t *TransactionHistoryTool) Description() string {
	return "Get recent transactions for a customer account"
}

func (t *TransactionHistoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {
				"type": "string",
				"description": "The customer's account ID"
			},
			"days": {
				"type": "integer",
				"description": "Number of days of history to retrieve (default: 30)"
			}
		},
		"required": ["account_id"]
	}`)
}

type transactionHistoryArgs struct {
	AccountID string `json:"account_id"`
	Days      int    `json:"days"`
}

func (t *TransactionHistoryTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var historyArgs transactionHistoryArgs
	if err := json.Unmarshal(args, &historyArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}
	if historyArgs.Days <= 0 {
		historyArgs.Days = 30
	}

	cutoff := t.now().AddDate(0, 0, -historyArgs.Days)

	var recent []bank.Transaction
	for _, tx := range t.store.Transactions(historyArgs.AccountID) {
		date, err := time.Parse(time.RFC3339, tx.Date)
		if err != nil || date.Before(cutoff) {
			continue
		}
		recent = append(recent, tx)
	}

	if len(recent) == 0 {
		return failure("No transactions found for account %s", historyArgs.AccountID), nil
	}

	capped := recent
	if len(capped) > maxTransactionsReturned {
		capped = capped[:maxTransactionsReturned]
	}

	return jsonResult(struct {
		Success          bool               `json:"success"`
		AccountID        string             `json:"account_id"`
		TransactionCount int                `json:"transaction_count"`
		Transactions     []bank.Transaction `json:"transactions"`
	}{Success: true, AccountID: historyArgs.AccountID, TransactionCount: len(recent), Transactions: capped})
}
