// Package domain holds the budget report data model: budget entries, transactions,
// ledger buckets and the derived report rows.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoType is the expense type of budget entries declared before any category
// header and of spending keys that have no budget entry.
const NoType = "No Type"

// DateLayout is the display format of transaction dates.
const DateLayout = "2006/01/02"

// BudgetEntry is one line item of the budget template.
type BudgetEntry struct {
	Key         string          `json:"key"`
	Name        string          `json:"name"`
	Budgeted    decimal.Decimal `json:"budgeted"` // Conventionally negative for planned spend
	ExpenseType string          `json:"expenseType"`
}

// NewBudgetEntry creates a validated budget entry. An empty expense type becomes NoType.
func NewBudgetEntry(key, name string, budgeted decimal.Decimal, expenseType string) (*BudgetEntry, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("budget key cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("budget name cannot be empty")
	}
	if expenseType == "" {
		expenseType = NoType
	}
	return &BudgetEntry{
		Key:         key,
		Name:        name,
		Budgeted:    budgeted,
		ExpenseType: expenseType,
	}, nil
}

// Transaction is a single bank row. Immutable once read.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal // Negative = outflow, positive = inflow
	Description string
	Source      string // File the transaction was read from
}

// NewTransaction creates a validated transaction.
func NewTransaction(date time.Time, amount decimal.Decimal, description string) (*Transaction, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	return &Transaction{
		Date:        date,
		Amount:      amount,
		Description: description,
	}, nil
}

// DateString formats the date as YYYY/MM/DD.
func (t Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// IsSpending reports whether the transaction is an outflow.
func (t Transaction) IsSpending() bool {
	return t.Amount.IsNegative()
}

// MarshalJSON renders the date in DateLayout.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string          `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Source      string          `json:"source,omitempty"`
	}{
		Date:        t.DateString(),
		Amount:      t.Amount,
		Description: t.Description,
		Source:      t.Source,
	})
}

// ExpenseSummaryRow is one spending key cross-referenced against the budget.
type ExpenseSummaryRow struct {
	Key        string          `json:"key"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	ActualCost decimal.Decimal `json:"actualCost"` // Sign preserved (negative)
	Difference decimal.Decimal `json:"difference"` // ActualCost + Budgeted
	InBudget   bool            `json:"inBudget"`
}

// ExpandedEntry is a spending key with more than one transaction.
type ExpandedEntry struct {
	Key          string        `json:"key"`
	Transactions []Transaction `json:"transactions"`
}

// IncomeRow is one income transaction as listed in the report.
type IncomeRow struct {
	Date   time.Time       `json:"-"`
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

// DateString formats the date as YYYY/MM/DD.
func (r IncomeRow) DateString() string {
	return r.Date.Format(DateLayout)
}

// MarshalJSON renders the date in DateLayout.
func (r IncomeRow) MarshalJSON() ([]byte, error) {
	type alias IncomeRow
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{
		Date:  r.DateString(),
		alias: alias(r),
	})
}
