// Package workbook reads the budget template and writes the monthly report
// sheet into the yearly budget workbook.
package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/catalog"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// DefaultTemplateSheet is the sheet holding the budget line items.
const DefaultTemplateSheet = "Budget"

// ReadTemplateRows returns the (name, budget, key) cells of every row of the
// template sheet, columns A to C. A missing template is domain.ErrSourceNotFound.
func ReadTemplateRows(path, sheet string) ([]catalog.Row, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("budget template %s: %w", path, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to stat budget template %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open budget template %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = DefaultTemplateSheet
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("budget template %s has no sheet %q: %w", path, sheet, domain.ErrSourceNotFound)
	}

	// Raw values keep budgets as plain numbers regardless of the cell's currency format
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}

	rows := make([]catalog.Row, 0, len(records))
	for i, record := range records {
		rows = append(rows, catalog.Row{
			Number:   i + 1,
			Name:     cell(record, 0),
			Budgeted: cell(record, 1),
			Key:      cell(record, 2),
		})
	}
	return rows, nil
}

func cell(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
