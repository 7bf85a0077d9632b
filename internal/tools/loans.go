package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bankassist/banking-agent/internal/bank"
)

// LoanEligibilityTool checks an account against the loan catalog
type LoanEligibilityTool struct {
	store *bank.Store
}

// NewLoanEligibilityTool creates the loan eligibility tool
func NewLoanEligibilityTool(store *bank.Store) *LoanEligibilityTool {
	return &LoanEligibilityTool{store: store}
}

func (t *LoanEligibilityTool) Name() string {
	return "check_loan_eligibility"
}

func (t *LoanEligibilityTool) Description() string {
	return "Check customer eligibility for different types of loans"
}

func (t *LoanEligibilityTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"account_id": {
				"type": "string",
				"description": "The customer's account ID"
			},
			"loan_type": {
				"type": "string",
				"description": "Type of loan: personal, home, business, or auto"
			}
		},
		"required": ["account_id", "loan_type"]
	}`)
}

type loanEligibilityArgs struct {
	AccountID string `json:"account_id"`
	LoanType  string `json:"loan_type"`
}

func (t *LoanEligibilityTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var loanArgs loanEligibilityArgs
	if err := json.Unmarshal(args, &loanArgs); err != nil {
		return failure("Failed to parse arguments: %v", err), nil
	}

	account, ok := t.store.Account(loanArgs.AccountID)
	if !ok {
		return failure("Account %s not found. Try ACC001, ACC002, or ACC003", loanArgs.AccountID), nil
	}

	product, ok := t.store.LoanProduct(loanArgs.LoanType)
	if !ok {
		return failure("Unknown loan type. Available: %s", strings.Join(t.store.LoanTypes(), ", ")), nil
	}

	eligible := product.Eligible(account.Balance)

	message := fmt.Sprintf("Eligible for %s loan", loanArgs.LoanType)
	if !eligible {
		message = fmt.Sprintf("Minimum balance of %s required", bank.FormatINR(product.MinBalanceRequired))
	}

	return jsonResult(struct {
		Success      bool             `json:"success"`
		AccountID    string           `json:"account_id"`
		CustomerName string           `json:"customer_name"`
		LoanType     string           `json:"loan_type"`
		Eligible     bool             `json:"eligible"`
		LoanDetails  bank.LoanProduct `json:"loan_details"`
		Message      string           `json:"message"`
	}{
		Success:      true,
		AccountID:    loanArgs.AccountID,
		CustomerName: account.CustomerName,
		LoanType:     loanArgs.LoanType,
		Eligible:     eligible,
		LoanDetails:  product,
		Message:      message,
	})
}
