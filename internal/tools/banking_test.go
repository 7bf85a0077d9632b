package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankassist/banking-agent/internal/bank"
)

// memoryRecorder collects tickets in memory
type memoryRecorder struct {
	tickets []Ticket
	err     error
}

func (m *memoryRecorder) SaveTicket(ctx context.Context, ticket Ticket) error {
	if m.err != nil {
		return m.err
	}
	m.tickets = append(m.tickets, ticket)
	return nil
}

func newBankingTestRegistry(t *testing.T, recorder TicketRecorder) *Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, bank.Bootstrap(dir))
	store, err := bank.Open(dir)
	require.NoError(t, err)

	registry, err := NewBankingRegistry(store, recorder)
	require.NoError(t, err)
	return registry
}

func invoke(t *testing.T, registry *Registry, name, args string) map[string]interface{} {
	t.Helper()
	result := registry.Invoke(context.Background(), name, json.RawMessage(args))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content), &payload), result.Content)
	return payload
}

func TestBankingRegistryCanonicalOrder(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	assert.Equal(t, []string{
		"get_account_details",
		"get_transaction_history",
		"find_nearest_branch",
		"check_loan_eligibility",
		"escalate_to_human",
		"validate_account",
	}, registry.List())
}

func TestAccountDetails(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	payload := invoke(t, registry, "get_account_details", `{"account_id": "ACC001"}`)
	require.Equal(t, true, payload["success"])

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "Rajesh Kumar", data["customer_name"])
	assert.Equal(t, 250000.0, data["balance"])
	assert.Equal(t, "Active", data["account_status"])
	assert.Equal(t, "Savings Account", data["account_type"])
}

func TestAccountDetailsUnknownAccount(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	result := registry.Invoke(context.Background(), "get_account_details", json.RawMessage(`{"account_id": "ACC999"}`))
	assert.True(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content), &payload))
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["error"], "Account ACC999 not found. Try ACC001, ACC002, or ACC003")
}

func TestAccountDetailsInvokedTwiceSameResult(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)
	args := json.RawMessage(`{"account_id": "ACC002"}`)

	first := registry.Invoke(context.Background(), "get_account_details", args)
	second := registry.Invoke(context.Background(), "get_account_details", args)
	assert.Equal(t, first, second, "fixture lookups are idempotent")
}

func TestValidateAccount(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	payload := invoke(t, registry, "validate_account", `{"account_id": "ACC003"}`)
	assert.Equal(t, true, payload["valid"])
	assert.Equal(t, "Account ACC003 exists", payload["message"])

	payload = invoke(t, registry, "validate_account", `{"account_id": "ACC404"}`)
	assert.Equal(t, false, payload["valid"])
	assert.Equal(t, "Account ACC404 not found", payload["message"])
}

func TestTransactionHistory(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	payload := invoke(t, registry, "get_transaction_history", `{"account_id": "ACC001"}`)
	require.Equal(t, true, payload["success"])
	assert.Equal(t, "ACC001", payload["account_id"])

	transactions := payload["transactions"].([]interface{})
	require.NotEmpty(t, transactions)
	assert.LessOrEqual(t, len(transactions), 10)

	var prev string
	for i, raw := range transactions {
		tx := raw.(map[string]interface{})
		assert.Equal(t, "ACC001", tx["account_id"])
		date := tx["date"].(string)
		if i > 0 {
			assert.LessOrEqual(t, date, prev, "newest first")
		}
		prev = date
	}
}

func TestTransactionHistoryDaysWindow(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	// All fixture entries are dated within the last 30 days.
	payload := invoke(t, registry, "get_transaction_history", `{"account_id": "ACC002", "days": 365}`)
	require.Equal(t, true, payload["success"])
	assert.Equal(t, 10.0, payload["transaction_count"])
}

func TestTransactionHistoryUnknownAccount(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	result := registry.Invoke(context.Background(), "get_transaction_history", json.RawMessage(`{"account_id": "ACC999"}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "No transactions found for account ACC999")
}

func TestBranchFinder(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	payload := invoke(t, registry, "find_nearest_branch", `{"city": "mumbai"}`)
	require.Equal(t, true, payload["success"])
	assert.Equal(t, 2.0, payload["branch_count"])

	branches := payload["branches"].([]interface{})
	require.Len(t, branches, 2)
	first := branches[0].(map[string]interface{})
	assert.Equal(t, "Mumbai", first["city"])
}

func TestBranchFinderNoMatch(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	result := registry.Invoke(context.Background(), "find_nearest_branch", json.RawMessage(`{"city": "Pune"}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "No branches found in Pune")
	assert.Contains(t, result.Content, "Mumbai, Bangalore, Delhi")
}

func TestLoanEligibility(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	t.Run("eligible", func(t *testing.T) {
		// ACC003 holds 125000; auto loans need 100000.
		payload := invoke(t, registry, "check_loan_eligibility", `{"account_id": "ACC003", "loan_type": "auto"}`)
		require.Equal(t, true, payload["success"])
		assert.Equal(t, true, payload["eligible"])
		assert.Equal(t, "Eligible for auto loan", payload["message"])
		assert.Equal(t, "Amit Patel", payload["customer_name"])
	})

	t.Run("not eligible", func(t *testing.T) {
		// ACC003 holds 125000; business loans need 200000.
		payload := invoke(t, registry, "check_loan_eligibility", `{"account_id": "ACC003", "loan_type": "business"}`)
		require.Equal(t, true, payload["success"])
		assert.Equal(t, false, payload["eligible"])
		assert.Equal(t, "Minimum balance of Rs. 2,00,000 required", payload["message"])
	})

	t.Run("case-insensitive loan type", func(t *testing.T) {
		payload := invoke(t, registry, "check_loan_eligibility", `{"account_id": "ACC002", "loan_type": "HOME"}`)
		require.Equal(t, true, payload["success"])
		assert.Equal(t, true, payload["eligible"])
	})

	t.Run("unknown loan type", func(t *testing.T) {
		payload := invoke(t, registry, "check_loan_eligibility", `{"account_id": "ACC001", "loan_type": "crypto"}`)
		assert.Equal(t, false, payload["success"])
		assert.Contains(t, payload["error"], "Unknown loan type. Available: personal, home, business, auto")
	})

	t.Run("unknown account", func(t *testing.T) {
		payload := invoke(t, registry, "check_loan_eligibility", `{"account_id": "ACC999", "loan_type": "home"}`)
		assert.Equal(t, false, payload["success"])
		assert.Contains(t, payload["error"], "Account ACC999 not found")
	})
}

func TestEscalateCreatesUniqueTickets(t *testing.T) {
	recorder := &memoryRecorder{}
	registry := newBankingTestRegistry(t, recorder)

	first := invoke(t, registry, "escalate_to_human", `{"account_id": "ACC001", "reason": "suspected fraud"}`)
	second := invoke(t, registry, "escalate_to_human", `{"account_id": "ACC001", "reason": "suspected fraud"}`)

	require.Equal(t, true, first["success"])
	require.Equal(t, true, second["success"])

	firstID := first["ticket_id"].(string)
	secondID := second["ticket_id"].(string)
	assert.NotEqual(t, firstID, secondID, "ticket IDs are unique per escalation")
	assert.Contains(t, firstID, "TKT")
	assert.Equal(t, "Created", first["status"])
	assert.Equal(t, "high", first["priority"])
	assert.Contains(t, first["message"], firstID)
	assert.Contains(t, first["message"], "within 2 hours")

	require.Len(t, recorder.tickets, 2)
	assert.Equal(t, "suspected fraud", recorder.tickets[0].Reason)
	assert.Equal(t, "ACC001", recorder.tickets[0].AccountID)
}

func TestEscalateRecordsConversationLanguage(t *testing.T) {
	recorder := &memoryRecorder{}
	registry := newBankingTestRegistry(t, recorder)

	ctx := WithTicketLanguage(context.Background(), "Hindi")
	result := registry.Invoke(ctx, "escalate_to_human", json.RawMessage(`{"account_id": "ACC002", "reason": "complaint"}`))
	assert.False(t, result.IsError)

	require.Len(t, recorder.tickets, 1)
	assert.Equal(t, "Hindi", recorder.tickets[0].Language)
	assert.WithinDuration(t, time.Now(), recorder.tickets[0].CreatedAt, time.Minute)
}

func TestEscalateRecorderFailure(t *testing.T) {
	recorder := &memoryRecorder{err: context.DeadlineExceeded}
	registry := newBankingTestRegistry(t, recorder)

	result := registry.Invoke(context.Background(), "escalate_to_human", json.RawMessage(`{"account_id": "ACC001", "reason": "x"}`))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "Tool escalate_to_human failed")
}

func TestEscalateWithoutRecorder(t *testing.T) {
	registry := newBankingTestRegistry(t, nil)

	payload := invoke(t, registry, "escalate_to_human", `{"account_id": "ACC001", "reason": "card blocked"}`)
	assert.Equal(t, true, payload["success"])
	assert.NotEmpty(t, payload["ticket_id"])
}
