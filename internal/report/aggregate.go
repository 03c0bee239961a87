// Package report turns a budget catalog and a finished ledger into the
// datasets the workbook renderer and the JSON export consume.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// Catalog is the read side of a budget catalog.
type Catalog interface {
	Get(key string) (domain.BudgetEntry, bool)
}

// KeyFinder resolves a ledger key to the catalog key it belongs to.
type KeyFinder interface {
	Find(text string) (string, bool)
}

// Aggregate builds the expense summary (one row per spending key, in bucket
// insertion order) and the expanded entries (spending keys with more than one
// transaction, most transactions first, ties in insertion order).
// It does not modify its inputs.
func Aggregate(catalog Catalog, ledger *domain.Ledger, finder KeyFinder) ([]domain.ExpenseSummaryRow, []domain.ExpandedEntry) {
	summary := make([]domain.ExpenseSummaryRow, 0, ledger.Spending().Len())
	var expanded []domain.ExpandedEntry

	ledger.Spending().Each(func(key string, bucket *domain.Bucket) {
		summary = append(summary, summarize(catalog, finder, key, bucket))
		if bucket.Len() > 1 {
			expanded = append(expanded, domain.ExpandedEntry{
				Key:          key,
				Transactions: bucket.Transactions(),
			})
		}
	})

	sort.SliceStable(expanded, func(i, j int) bool {
		return len(expanded[i].Transactions) > len(expanded[j].Transactions)
	})

	if expanded == nil {
		expanded = []domain.ExpandedEntry{}
	}
	return summary, expanded
}

func summarize(catalog Catalog, finder KeyFinder, key string, bucket *domain.Bucket) domain.ExpenseSummaryRow {
	row := domain.ExpenseSummaryRow{
		Key:        key,
		Name:       key,
		Type:       domain.NoType,
		Budgeted:   decimal.Zero,
		ActualCost: bucket.Total(),
	}

	if catalogKey, ok := finder.Find(key); ok {
		if entry, ok := catalog.Get(catalogKey); ok {
			row.Name = entry.Name
			row.Type = entry.ExpenseType
			row.Budgeted = entry.Budgeted
			row.InBudget = true
		}
	}

	row.Difference = row.ActualCost.Add(row.Budgeted)
	return row
}

// IncomeRows lists every income transaction, grouped by key in insertion order.
func IncomeRows(ledger *domain.Ledger) []domain.IncomeRow {
	rows := []domain.IncomeRow{}
	ledger.Income().Each(func(key string, bucket *domain.Bucket) {
		for _, txn := range bucket.Transactions() {
			rows = append(rows, domain.IncomeRow{
				Date:   txn.Date,
				Source: strings.TrimSpace(key),
				Amount: txn.Amount,
			})
		}
	})
	return rows
}
