package report

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// Report holds every dataset the renderer needs for one month.
type Report struct {
	RunID           string                     `json:"runId"`
	Period          Period                     `json:"period"`
	TotalIncome     decimal.Decimal            `json:"totalIncome"`
	TotalSpending   decimal.Decimal            `json:"totalSpending"`
	Savings         decimal.Decimal            `json:"savings"`
	SavingsPositive bool                       `json:"savingsPositive"`
	ExpenseSummary  []domain.ExpenseSummaryRow `json:"expenseSummary"`
	Expanded        []domain.ExpandedEntry     `json:"expanded"`
	Income          []domain.IncomeRow         `json:"income"`
}

// TotalExpense is total spending presented as a positive figure.
func (r *Report) TotalExpense() decimal.Decimal {
	return r.TotalSpending.Neg()
}

// Options controls Build.
type Options struct {
	// RunID tags the report. A new UUID is generated when empty.
	RunID string
	// Period overrides the derived reporting month when set.
	Period Period
}

// Build aggregates the ledger against the catalog. It fails with
// domain.ErrEmptyResult when the ledger holds no transactions.
func Build(catalog Catalog, ledger *domain.Ledger, finder KeyFinder, opts Options) (*Report, error) {
	if ledger.IsEmpty() {
		return nil, domain.ErrEmptyResult
	}

	summary, expanded := Aggregate(catalog, ledger, finder)

	period := opts.Period
	if period.IsZero() {
		derived, ok := derivePeriod(expanded, ledger)
		if !ok {
			return nil, fmt.Errorf("cannot derive reporting month: %w", domain.ErrEmptyResult)
		}
		period = derived
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	savings := ledger.TotalIncome().Add(ledger.TotalSpending())
	return &Report{
		RunID:           runID,
		Period:          period,
		TotalIncome:     ledger.TotalIncome(),
		TotalSpending:   ledger.TotalSpending(),
		Savings:         savings,
		SavingsPositive: savings.IsPositive(),
		ExpenseSummary:  summary,
		Expanded:        expanded,
		Income:          IncomeRows(ledger),
	}, nil
}
