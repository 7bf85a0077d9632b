package bank

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const (
	// DocsFile is the retrieval corpus document inside the data dir
	DocsFile = "banking_docs.txt"
	// BranchDataFile is the branch directory inside the data dir
	BranchDataFile = "branch_data.json"
	// TransactionsFile is the generated ledger inside the data dir
	TransactionsFile = "transactions.json"

	// transactionSeed keeps the generated ledger stable across runs
	transactionSeed = 20240115
)

// Bootstrap writes the demo fixture files into dataDir. Files already
// present are left untouched so repeated startups keep a stable corpus.
func Bootstrap(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := writeIfMissing(filepath.Join(dataDir, DocsFile), []byte(bankingDocs)); err != nil {
		return err
	}

	branches, err := json.MarshalIndent(branchFile{Branches: seedBranches()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal branches: %w", err)
	}
	if err := writeIfMissing(filepath.Join(dataDir, BranchDataFile), branches); err != nil {
		return err
	}

	transactions, err := json.MarshalIndent(generateTransactions(time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}
	return writeIfMissing(filepath.Join(dataDir, TransactionsFile), transactions)
}

func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// generateTransactions produces ten ledger entries per seed account,
// dated within the last 30 days of now. The fixed seed keeps amounts
// and descriptions reproducible.
func generateTransactions(now time.Time) []Transaction {
	rng := rand.New(rand.NewSource(transactionSeed))

	descriptions := []string{
		"Salary Deposit",
		"Grocery Purchase",
		"Electricity Bill",
		"ATM Withdrawal",
		"Online Shopping",
		"Transfer to Friend",
	}
	types := []string{"Credit", "Debit"}

	accounts := seedAccounts()
	var transactions []Transaction
	for _, accountID := range seedAccountIDs() {
		account := accounts[accountID]
		for i := 0; i < 10; i++ {
			date := now.AddDate(0, 0, -(1 + rng.Intn(30)))
			transactions = append(transactions, Transaction{
				TransactionID: fmt.Sprintf("TXN%s%03d", accountID, i),
				AccountID:     accountID,
				CustomerName:  account.CustomerName,
				Date:          date.Format(time.RFC3339),
				Type:          types[rng.Intn(len(types))],
				Amount:        math.Round((1000+rng.Float64()*49000)*100) / 100,
				Description:   descriptions[rng.Intn(len(descriptions))],
				Status:        "Completed",
			})
		}
	}
	return transactions
}
