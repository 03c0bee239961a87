package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ledger"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/report"
)

// ValidationResult contains all validation errors and warnings for a run
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error
type ValidationError struct {
	Entity  string // "bucket", "ledger", "summary", "expanded", "report"
	ID      string
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical validation issue
type ValidationWarning struct {
	Entity  string
	ID      string
	Field   string
	Value   string
	Message string
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

// HasErrors reports whether any error was found
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Merge appends the findings of other
func (r *ValidationResult) Merge(other *ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *ValidationResult) errorf(entity, id, field, value, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{
		Entity:  entity,
		ID:      id,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *ValidationResult) warnf(entity, id, field, value, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		Entity:  entity,
		ID:      id,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// ValidateLedger checks that every bucket total equals the sum of its
// transactions, that spending buckets only hold outflows and income buckets
// only inflows, and that the grand totals equal the bucket sums.
func ValidateLedger(l *domain.Ledger) *ValidationResult {
	result := newResult()

	validateSide(result, "spending", l.Spending(), l.TotalSpending(), func(amount decimal.Decimal) bool {
		return amount.IsNegative()
	})
	validateSide(result, "income", l.Income(), l.TotalIncome(), func(amount decimal.Decimal) bool {
		return !amount.IsNegative()
	})

	return result
}

func validateSide(result *ValidationResult, side string, buckets *domain.Buckets, grandTotal decimal.Decimal, allowed func(decimal.Decimal) bool) {
	sum := decimal.Zero
	buckets.Each(func(key string, bucket *domain.Bucket) {
		if key == "" {
			result.errorf("bucket", key, "Key", "", "%s bucket key cannot be empty", side)
		}

		txnSum := decimal.Zero
		for _, txn := range bucket.Transactions() {
			txnSum = txnSum.Add(txn.Amount)
			if !allowed(txn.Amount) {
				result.errorf("bucket", key, "Amount", txn.Amount.String(),
					"%s bucket holds transaction %q on %s with amount %s", side, txn.Description, txn.DateString(), txn.Amount)
			}
			if txn.Date.IsZero() {
				result.errorf("bucket", key, "Date", "", "transaction %q has no date", txn.Description)
			}
		}
		if bucket.Len() == 0 {
			result.errorf("bucket", key, "Transactions", "0", "%s bucket has no transactions", side)
		}
		if !bucket.Total().Equal(txnSum) {
			result.errorf("bucket", key, "Total", bucket.Total().String(),
				"%s bucket total %s does not equal transaction sum %s", side, bucket.Total(), txnSum)
		}
		sum = sum.Add(bucket.Total())
	})

	if !grandTotal.Equal(sum) {
		result.errorf("ledger", side, "Total", grandTotal.String(),
			"total %s %s does not equal bucket sum %s", side, grandTotal, sum)
	}
}

// ValidateReport checks the arithmetic and ordering of the report datasets and
// warns about spending with no budget entry and budget entries never used.
func ValidateReport(r *report.Report, entries []domain.BudgetEntry) *ValidationResult {
	result := newResult()

	observed := make(map[string]bool, len(r.ExpenseSummary))
	for _, row := range r.ExpenseSummary {
		if want := row.ActualCost.Add(row.Budgeted); !row.Difference.Equal(want) {
			result.errorf("summary", row.Key, "Difference", row.Difference.String(),
				"difference %s does not equal cost %s plus budget %s", row.Difference, row.ActualCost, row.Budgeted)
		}
		if row.InBudget {
			observed[row.Key] = true
			continue
		}
		if row.Type != domain.NoType || !row.Budgeted.IsZero() {
			result.errorf("summary", row.Key, "Type", row.Type,
				"key without a budget entry must have type %q and budget 0", domain.NoType)
		}
		result.warnf("summary", row.Key, "Key", row.Key,
			"spending of %s has no budget entry", row.ActualCost.Neg())
	}

	for i, entry := range r.Expanded {
		if len(entry.Transactions) < 2 {
			result.errorf("expanded", entry.Key, "Transactions", fmt.Sprint(len(entry.Transactions)),
				"expanded entry needs more than one transaction")
		}
		if i > 0 && len(r.Expanded[i-1].Transactions) < len(entry.Transactions) {
			result.errorf("expanded", entry.Key, "Transactions", fmt.Sprint(len(entry.Transactions)),
				"expanded entry has more transactions than %q before it", r.Expanded[i-1].Key)
		}
	}

	if want := r.TotalIncome.Add(r.TotalSpending); !r.Savings.Equal(want) {
		result.errorf("report", r.RunID, "Savings", r.Savings.String(),
			"savings %s does not equal income %s plus spending %s", r.Savings, r.TotalIncome, r.TotalSpending)
	}
	if r.SavingsPositive != r.Savings.IsPositive() {
		result.errorf("report", r.RunID, "SavingsPositive", fmt.Sprint(r.SavingsPositive),
			"savings flag does not match savings %s", r.Savings)
	}

	for _, entry := range entries {
		if !observed[entry.Key] && entry.Budgeted.IsNegative() {
			result.warnf("budget", entry.Key, "Key", entry.Key,
				"budget entry %q (%s) had no spending", entry.Name, entry.Budgeted)
		}
	}

	return result
}

// Coverage is the share of recorded transactions that matched a budget key
type Coverage struct {
	Matched  int
	Recorded int
}

// CoverageOf reads the matcher counters of a ledger build
func CoverageOf(stats ledger.Stats) Coverage {
	return Coverage{Matched: stats.Matched, Recorded: stats.Recorded()}
}

// Percent returns the matched share in [0,100]. An empty run is fully covered.
func (c Coverage) Percent() float64 {
	if c.Recorded == 0 {
		return 100
	}
	return float64(c.Matched) / float64(c.Recorded) * 100
}

func (c Coverage) String() string {
	return fmt.Sprintf("%d/%d transactions matched (%.1f%%)", c.Matched, c.Recorded, c.Percent())
}
