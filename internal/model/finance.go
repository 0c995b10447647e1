package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment, AccountOther:
		return true
	}
	return false
}

// Account balances are kept in integer cents.
type Account struct {
	ID           int64       `json:"id"`
	UserID       string      `json:"user_id"`
	Name         string      `json:"name"`
	Type         AccountType `json:"type"`
	BalanceCents int64       `json:"balance_cents"`
	Bank         *string     `json:"bank,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("name", "must not be empty")
	}
	if !a.Type.Valid() {
		return Invalid("type", "must be checking, savings, credit, investment or other")
	}
	return nil
}

type AccountPatch struct {
	Name         *string      `json:"name"`
	Type         *AccountType `json:"type"`
	BalanceCents *int64       `json:"balance_cents"`
	Bank         *string      `json:"bank"`
}

func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.BalanceCents != nil {
		a.BalanceCents = *p.BalanceCents
	}
	if p.Bank != nil {
		a.Bank = p.Bank
	}
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type Transaction struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   int64           `json:"account_id"`
	Description *string         `json:"description,omitempty"`
	AmountCents int64           `json:"amount_cents"`
	Type        TransactionType `json:"type"`
	Category    *string         `json:"category,omitempty"`
	Date        civil.Date      `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (t *Transaction) Validate() error {
	if t.AccountID <= 0 {
		return Invalid("account_id", "is required")
	}
	if t.AmountCents <= 0 {
		return Invalid("amount_cents", "must be positive")
	}
	if t.Type != TransactionIncome && t.Type != TransactionExpense {
		return Invalid("type", "must be income or expense")
	}
	if !t.Date.IsValid() {
		return Invalid("date", "is required")
	}
	return nil
}

// Effect is the signed change this transaction applies to its account balance.
func (t *Transaction) Effect() int64 {
	if t.Type == TransactionExpense {
		return -t.AmountCents
	}
	return t.AmountCents
}

type FinanceSummary struct {
	TotalBalanceCents int64 `json:"total_balance_cents"`
	IncomeCents       int64 `json:"income_cents"`
	ExpenseCents      int64 `json:"expense_cents"`
	TransactionCount  int   `json:"transaction_count"`
	AccountCount      int   `json:"account_count"`
}

// FormatCents renders 12345 as "123.45".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
