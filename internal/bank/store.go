package bank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store provides read access to the demo banking fixtures. Accounts and
// loan products are compiled in; transactions and branches come from the
// files Bootstrap writes into the data dir.
type Store struct {
	accounts     map[string]Account
	loans        map[string]LoanProduct
	transactions []Transaction
	branches     []Branch
}

// Open loads the fixture files from dataDir. A missing file leaves its
// section empty; a malformed one is an error.
func Open(dataDir string) (*Store, error) {
	store := &Store{
		accounts: seedAccounts(),
		loans:    loanCatalog(),
	}

	if err := readJSONFile(filepath.Join(dataDir, TransactionsFile), &store.transactions); err != nil {
		return nil, err
	}

	var branchData branchFile
	if err := readJSONFile(filepath.Join(dataDir, BranchDataFile), &branchData); err != nil {
		return nil, err
	}
	store.branches = branchData.Branches

	return store, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Account looks up an account by ID
func (s *Store) Account(accountID string) (Account, bool) {
	account, ok := s.accounts[accountID]
	return account, ok
}

// Transactions returns the account's ledger entries, newest first
func (s *Store) Transactions(accountID string) []Transaction {
	var matched []Transaction
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date > matched[j].Date
	})
	return matched
}

// BranchesInCity returns branches whose city contains the query,
// case-insensitively
func (s *Store) BranchesInCity(city string) []Branch {
	query := strings.ToLower(city)
	var matched []Branch
	for _, b := range s.branches {
		if strings.Contains(strings.ToLower(b.City), query) {
			matched = append(matched, b)
		}
	}
	return matched
}

// Branches returns the full branch directory
func (s *Store) Branches() []Branch {
	return s.branches
}

// LoanProduct looks up a loan catalog entry by type, case-insensitively
func (s *Store) LoanProduct(loanType string) (LoanProduct, bool) {
	product, ok := s.loans[strings.ToLower(loanType)]
	return product, ok
}

// LoanTypes returns the catalog's loan types in presentation order
func (s *Store) LoanTypes() []string {
	var types []string
	for _, name := range loanTypeOrder() {
		if _, ok := s.loans[name]; ok {
			types = append(types, name)
		}
	}
	return types
}
