package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bankassist/banking-agent/internal/bank"
)

// AccountDetailsTool serves account lookups from the fixture book
type AccountDetailsTool struct {
	store *bank.Store
}

// NewAccountDetailsTool creates the account details tool
func NewAccountDetailsTool(store *bank.Store) *AccountDetailsTool {
	return &AccountDetailsTool{store: store}
}

func (t *AccountDetailsTool) Name() string {
	return "get_account_details"
}

func (t *AccountDetailsTool) Description() string {
	return "Retrieve account details including balance, account type, and status for a customer"
}

func (t *AccountDetailsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {
				"type": "string",
				"description": "The customer's account ID (e.g., 'ACC001')"
			}
		},
		"required": ["account_id"]
	}`)
}

type accountDetailsArgs struct {
	AccountID string `json:"account_id"`
}

func (t *AccountDetailsTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var detailsArgs accountDetailsArgs
	if err := json.Unmarshal(args, &detailsArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}

	account, ok := t.store.Account(detailsArgs.AccountID)
	if !ok {
		return failure("Account %s not found. Try ACC001, ACC002, or ACC003", detailsArgs.AccountID), nil
	}

	return jsonResult(struct {
		Success bool         `json:"success"`
		Data    bank.Account `json:"data"`
	}{Success: true, Data: account})
}

// ValidateAccountTool probes whether an account ID exists
type ValidateAccountTool struct {
	store *bank.Store
}

// NewValidateAccountTool creates the account validation tool
func NewValidateAccountTool(store *bank.Store) *ValidateAccountTool {
	return &ValidateAccountTool{store: store}
}

func (t *ValidateAccountTool) Name() string {
	return "validate_account"
}

func (t *ValidateAccountTool) Description() string {
	return "Check whether a customer account ID exists before acting on it"
}

func (t *ValidateAccountTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {
				"type": "string",
				"description": "The account ID to validate"
			}
		},
		"required": ["account_id"]
	}`)
}

func (t *ValidateAccountTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var probeArgs accountDetailsArgs
	if err := json.Unmarshal(args, &probeArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}

	_, ok := t.store.Account(probeArgs.AccountID)
	message := fmt.Sprintf("Account %s exists", probeArgs.AccountID)
	if !ok {
		message = fmt.Sprintf("Account %s not found", probeArgs.AccountID)
	}

	return jsonResult(struct {
		Success   bool   `json:"success"`
		AccountID string `json:"account_id"`
		Valid     bool   `json:"valid"`
		Message   string `json:"message"`
	}{Success: ok, AccountID: probeArgs.AccountID, Valid: ok, Message: message})
}
