// Package bank holds the demo fixtures the banking tools and the
// retrieval corpus are served from: a small account book, branch
// directory, loan catalog and generated transaction history.
package bank

import (
	"fmt"
	"strings"
)

// Account is a customer account record
type Account struct {
	AccountID     string  `json:"account_id"`
	CustomerName  string  `json:"customer_name"`
	AccountType   string  `json:"account_type"`
	Balance       float64 `json:"balance"`
	AccountStatus string  `json:"account_status"`
	OpeningDate   string  `json:"opening_date"`
	AccountNumber string  `json:"account_number"`
}

// Transaction is a single ledger entry
type Transaction struct {
	TransactionID string  `json:"transaction_id"`
	AccountID     string  `json:"account_id"`
	CustomerName  string  `json:"customer_name"`
	Date          string  `json:"date"`
	Type          string  `json:"type"` // "Credit" or "Debit"
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
}

// Branch is a bank branch directory entry
type Branch struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Timings      string   `json:"timings"`
	Services     []string `json:"services"`
	ATMAvailable bool     `json:"atm_available"`
}

// Document renders the branch as a retrieval corpus document
func (b Branch) Document() string {
	atm := "No"
	if b.ATMAvailable {
		atm = "Yes"
	}
	return fmt.Sprintf(`Branch Name: %s
Branch ID: %s
City: %s
Address: %s
Phone: %s
Email: %s
Timings: %s
Services: %s
ATM Available: %s`,
		b.Name, b.ID, b.City, b.Address, b.Phone, b.Email, b.Timings,
		strings.Join(b.Services, ", "), atm)
}

// LoanProduct describes one entry of the loan catalog
type LoanProduct struct {
	MaxAmount          float64 `json:"max_amount"`
	InterestRate       string  `json:"interest_rate"`
	Tenure             string  `json:"tenure"`
	MinBalanceRequired float64 `json:"min_balance_required"`
}

// Eligible reports whether a balance qualifies for the product.
// The boundary is inclusive: a balance exactly at the minimum qualifies.
func (p LoanProduct) Eligible(balance float64) bool {
	return balance >= p.MinBalanceRequired
}

// branchFile matches the on-disk branch_data.json layout
type branchFile struct {
	Branches []Branch `json:"branches"`
}

// seedAccounts is the demo account book. IDs are stable so the
// documentation and tool hints can reference them.
func seedAccounts() map[string]Account {
	return map[string]Account{
		"ACC001": {
			AccountID:     "ACC001",
			CustomerName:  "Rajesh Kumar",
			AccountType:   "Savings Account",
			Balance:       250000,
			AccountStatus: "Active",
			OpeningDate:   "2020-01-15",
			AccountNumber: "1234567890123456",
		},
		"ACC002": {
			AccountID:     "ACC002",
			CustomerName:  "Priya Sharma",
			AccountType:   "Current Account",
			Balance:       500000,
			AccountStatus: "Active",
			OpeningDate:   "2019-06-22",
			AccountNumber: "2345678901234567",
		},
		"ACC003": {
			AccountID:     "ACC003",
			CustomerName:  "Amit Patel",
			AccountType:   "Salary Account",
			Balance:       125000,
			AccountStatus: "Active",
			OpeningDate:   "2021-03-10",
			AccountNumber: "3456789012345678",
		},
	}
}

// seedAccountIDs returns the account IDs in a stable order
func seedAccountIDs() []string {
	return []string{"ACC001", "ACC002", "ACC003"}
}

// seedBranches is the demo branch directory
func seedBranches() []Branch {
	return []Branch{
		{
			ID:           "BR001",
			Name:         "Downtown Branch",
			City:         "Mumbai",
			Address:      "123 Financial Plaza, Mumbai - 400001",
			Phone:        "022-1234-5678",
			Email:        "downtown@bankassist.com",
			Timings:      "9:00 AM - 5:00 PM",
			Services:     []string{"Account Opening", "Loan Application", "Safe Deposit Lockers"},
			ATMAvailable: true,
		},
		{
			ID:           "BR002",
			Name:         "Airport Branch",
			City:         "Mumbai",
			Address:      "Terminal 2, Mumbai Airport",
			Phone:        "022-9876-5432",
			Email:        "airport@bankassist.com",
			Timings:      "24/7",
			Services:     []string{"International Transfers", "Forex", "Travel Cards"},
			ATMAvailable: true,
		},
		{
			ID:           "BR003",
			Name:         "IT Hub Branch",
			City:         "Bangalore",
			Address:      "Tech Park, Whitefield, Bangalore - 560066",
			Phone:        "080-4456-7890",
			Email:        "ithub@bankassist.com",
			Timings:      "9:00 AM - 6:00 PM",
			Services:     []string{"Account Opening", "Credit Cards", "Digital Services"},
			ATMAvailable: true,
		},
		{
			ID:           "BR004",
			Name:         "Central Branch",
			City:         "Delhi",
			Address:      "456 Business Central, New Delhi - 110001",
			Phone:        "011-2345-6789",
			Email:        "central@bankassist.com",
			Timings:      "9:00 AM - 5:00 PM",
			Services:     []string{"Bulk Services", "Corporate Accounts", "Investment"},
			ATMAvailable: true,
		},
	}
}

// loanTypeOrder returns the catalog's loan types in presentation order
func loanTypeOrder() []string {
	return []string{"personal", "home", "business", "auto"}
}

// loanCatalog is the demo loan product table keyed by loan type
func loanCatalog() map[string]LoanProduct {
	return map[string]LoanProduct{
		"personal": {
			MaxAmount:          5000000,
			InterestRate:       "9% - 12% p.a.",
			Tenure:             "12 - 60 months",
			MinBalanceRequired: 50000,
		},
		"home": {
			MaxAmount:          10000000,
			InterestRate:       "8.5% - 9.5% p.a.",
			Tenure:             "120 - 360 months",
			MinBalanceRequired: 100000,
		},
		"business": {
			MaxAmount:          1000000,
			InterestRate:       "12% - 15% p.a.",
			Tenure:             "24 - 84 months",
			MinBalanceRequired: 200000,
		},
		"auto": {
			MaxAmount:          5000000,
			InterestRate:       "8% - 10% p.a.",
			Tenure:             "24 - 84 months",
			MinBalanceRequired: 100000,
		},
	}
}
