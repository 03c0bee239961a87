package report

import (
	"fmt"
	"time"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// Period is the calendar month a report covers.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a YYYY-MM string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return PeriodOf(t), nil
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// SheetName is the English month name used for the workbook sheet.
func (p Period) SheetName() string {
	return p.Month.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// derivePeriod picks the reporting month: the first expanded entry's first
// transaction, else the first spending transaction, else the first income one.
func derivePeriod(expanded []domain.ExpandedEntry, ledger *domain.Ledger) (Period, bool) {
	if len(expanded) > 0 && len(expanded[0].Transactions) > 0 {
		return PeriodOf(expanded[0].Transactions[0].Date), true
	}
	for _, buckets := range []*domain.Buckets{ledger.Spending(), ledger.Income()} {
		keys := buckets.Keys()
		if len(keys) == 0 {
			continue
		}
		bucket, _ := buckets.Get(keys[0])
		if txns := bucket.Transactions(); len(txns) > 0 {
			return PeriodOf(txns[0].Date), true
		}
	}
	return Period{}, false
}
