package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// RowLayout describes where the fields of a tabular bank export live.
// Column positions are zero-based.
type RowLayout struct {
	HeaderRows        int      `yaml:"header_rows"`
	Banners           []string `yaml:"banners"`
	DateColumn        int      `yaml:"date"`
	AmountColumn      int      `yaml:"amount"`
	DescriptionColumn int      `yaml:"description"`
	DateLayouts       []string `yaml:"date_layouts"`
}

// DefaultRowLayout matches the bank export the tool was written for: four
// leading rows, a "First Bank Card" banner and date/amount/description in
// columns C, D and E with compact YYYYMMDD dates.
func DefaultRowLayout() RowLayout {
	return RowLayout{
		HeaderRows:        4,
		Banners:           []string{"first bank card"},
		DateColumn:        2,
		AmountColumn:      3,
		DescriptionColumn: 4,
		DateLayouts:       []string{"20060102", "2006/01/02", "2006-01-02"},
	}
}

// Validate checks the layout for impossible values
func (l RowLayout) Validate() error {
	if l.HeaderRows < 0 {
		return fmt.Errorf("header rows must be >= 0, got %d", l.HeaderRows)
	}
	columns := map[string]int{
		"date":        l.DateColumn,
		"amount":      l.AmountColumn,
		"description": l.DescriptionColumn,
	}
	seen := make(map[int]string, len(columns))
	for _, name := range []string{"date", "amount", "description"} {
		col := columns[name]
		if col < 0 {
			return fmt.Errorf("%s column must be >= 0, got %d", name, col)
		}
		if other, ok := seen[col]; ok {
			return fmt.Errorf("%s and %s columns both use position %d", other, name, col)
		}
		seen[col] = name
	}
	if len(l.DateLayouts) == 0 {
		return fmt.Errorf("at least one date layout is required")
	}
	return nil
}

func (l RowLayout) width() int {
	return max(l.DateColumn, l.AmountColumn, l.DescriptionColumn) + 1
}

// IsBanner reports whether the first column of a record repeats a banner value
func (l RowLayout) IsBanner(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	for _, banner := range l.Banners {
		if first == strings.ToLower(strings.TrimSpace(banner)) {
			return true
		}
	}
	return false
}

// ParseDate tries each date layout in order
func (l RowLayout) ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range l.DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected one of %s)", raw, strings.Join(l.DateLayouts, ", "))
}

// Apply turns tabular records into a RawStatement. records[i] is physical row
// i+1 of the source, and blank rows (nil or all-empty) keep their slot, so the
// leading header rows are counted in physical rows for every format. Blank rows
// are not counted in RowsRead. Leading header rows and banner rows are dropped;
// rows with missing or invalid fields are reported in Skipped.
func (l RowLayout) Apply(source string, records [][]string) *RawStatement {
	stmt := &RawStatement{
		Transactions: make([]domain.Transaction, 0, len(records)),
	}

	for i, record := range records {
		row := i + 1
		if isBlankRecord(record) {
			continue
		}
		stmt.RowsRead++

		if row <= l.HeaderRows || l.IsBanner(record) {
			stmt.HeaderRows++
			continue
		}

		txn, err := l.transaction(source, row, record)
		if err != nil {
			stmt.Skipped = append(stmt.Skipped, err)
			continue
		}
		stmt.Transactions = append(stmt.Transactions, *txn)
	}

	return stmt
}

func (l RowLayout) transaction(source string, row int, record []string) (*domain.Transaction, *domain.MalformedRowError) {
	if len(record) < l.width() {
		return nil, domain.NewMalformedRow(source, row, "expected at least %d fields, got %d", l.width(), len(record))
	}

	date, err := l.ParseDate(record[l.DateColumn])
	if err != nil {
		return nil, domain.NewMalformedRow(source, row, "%v", err)
	}

	if strings.TrimSpace(record[l.AmountColumn]) == "" {
		return nil, domain.NewMalformedRow(source, row, "amount cannot be empty")
	}
	amount, err := domain.ParseAmount(record[l.AmountColumn])
	if err != nil {
		return nil, domain.NewMalformedRow(source, row, "%v", err)
	}

	description := record[l.DescriptionColumn]
	if strings.TrimSpace(description) == "" {
		return nil, domain.NewMalformedRow(source, row, "description cannot be empty")
	}

	txn, err := domain.NewTransaction(date, amount, description)
	if err != nil {
		return nil, domain.NewMalformedRow(source, row, "%v", err)
	}
	txn.Source = source
	return txn, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
