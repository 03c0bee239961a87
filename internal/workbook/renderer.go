package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/report"
)

const (
	fontName       = "Arial Narrow"
	currencyFormat = "$#,##0.00;[Red]-$#,##0.00"
	tableStyle     = "TableStyleMedium2"

	colorBlack  = "000000"
	colorWhite  = "FFFFFF"
	colorPurple = "7030A0"
	colorGreen  = "9BBB59"

	// placeholderSheet keeps the workbook non-empty while the month sheet is replaced
	placeholderSheet = "budgetreport-tmp"
	defaultSheet     = "Sheet1"
)

// breakdownColumns are the first columns (J, N, R) of the three side-by-side
// lanes of per-key detail tables.
var breakdownColumns = []int{10, 14, 18}

// Renderer writes a report into the month sheet of a workbook.
type Renderer struct {
	path   string
	logger zerolog.Logger
}

// NewRenderer creates a renderer for the workbook at path.
func NewRenderer(path string, logger zerolog.Logger) *Renderer {
	return &Renderer{path: path, logger: logger}
}

// Path returns the workbook path.
func (r *Renderer) Path() string { return r.path }

// Render replaces the report month's sheet. The workbook is created when it
// does not exist. The file on disk is replaced in one rename, so a failed
// render leaves it untouched.
func (r *Renderer) Render(rep *report.Report) error {
	f, created, err := openWorkbook(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := rep.Period.SheetName()
	if err := replaceSheet(f, sheet, created); err != nil {
		return fmt.Errorf("failed to prepare sheet %q: %w", sheet, err)
	}

	w, err := newSheetWriter(f, sheet)
	if err != nil {
		return err
	}
	steps := []func(*report.Report) error{
		w.summary,
		w.expenseSummary,
		w.income,
		w.breakdown,
	}
	for _, step := range steps {
		if err := step(rep); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", sheet, err)
		}
	}
	if err := w.fitColumns(); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := saveAtomic(f, r.path); err != nil {
		return err
	}

	r.logger.Info().
		Str("workbook", r.path).
		Str("sheet", sheet).
		Bool("created", created).
		Int("expense_rows", len(rep.ExpenseSummary)).
		Int("income_rows", len(rep.Income)).
		Int("breakdown_tables", len(rep.Expanded)).
		Msg("report written")
	return nil
}

func openWorkbook(path string) (*excelize.File, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return excelize.NewFile(), true, nil
		}
		return nil, false, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return f, false, nil
}

// replaceSheet drops sheet (and its tables) if present and adds it back empty
// as the active sheet.
func replaceSheet(f *excelize.File, sheet string, created bool) error {
	if _, err := f.NewSheet(placeholderSheet); err != nil {
		return err
	}

	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		tables, err := f.GetTables(sheet)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if err := f.DeleteTable(t.Name); err != nil {
				return err
			}
		}
		if err := f.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	if created {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.DeleteSheet(placeholderSheet); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

// saveAtomic writes the workbook to a temporary file next to path and renames it over path.
func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workbook directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".budgetreport-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temporary workbook: %w", err)
	}
	tmpPath := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace workbook %s: %w", path, err)
	}
	return nil
}

type styles struct {
	mainHeader int
	keyHeader  int
	currency   int
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles styles
	names  *tableNames
	widths map[int]int
}

func newSheetWriter(f *excelize.File, sheet string) (*sheetWriter, error) {
	w := &sheetWriter{
		f:      f,
		sheet:  sheet,
		names:  newTableNames(sanitizeTableName(sheet)),
		widths: make(map[int]int),
	}
	if err := w.newStyles(); err != nil {
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}
	return w, nil
}

func (w *sheetWriter) newStyles() error {
	format := currencyFormat
	center := &excelize.Alignment{Horizontal: "center"}
	solid := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	var err error
	if w.styles.mainHeader, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorWhite, Family: fontName, Size: 16},
		Fill:      solid(colorBlack),
		Alignment: center,
	}); err != nil {
		return err
	}
	if w.styles.keyHeader, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorWhite, Family: fontName},
		Fill:      solid(colorPurple),
		Alignment: center,
	}); err != nil {
		return err
	}
	if w.styles.currency, err = w.f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: fontName},
		CustomNumFmt: &format,
	}); err != nil {
		return err
	}
	return nil
}

func (w *sheetWriter) savingsStyle(positive bool) (int, error) {
	format := currencyFormat
	fill := colorWhite
	if positive {
		fill = colorGreen
	}
	border := func(side string) excelize.Border {
		return excelize.Border{Type: side, Color: colorBlack, Style: 1}
	}
	return w.f.NewStyle(&excelize.Style{
		Border:       []excelize.Border{border("left"), border("top"), border("right"), border("bottom")},
		Font:         &excelize.Font{Family: fontName},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		CustomNumFmt: &format,
	})
}

func (w *sheetWriter) cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// row writes values left to right from (col, row) and tracks column widths.
func (w *sheetWriter) row(col, row int, values ...any) error {
	for i, v := range values {
		if err := w.f.SetCellValue(w.sheet, w.cellName(col+i, row), v); err != nil {
			return err
		}
		w.track(col+i, v)
	}
	return nil
}

func (w *sheetWriter) track(col int, v any) {
	var text string
	switch value := v.(type) {
	case string:
		text = value
	case float64:
		text = fmt.Sprintf("$%.2f", value)
	default:
		text = fmt.Sprint(value)
	}
	if n := utf8.RuneCountInString(text); n > w.widths[col] {
		w.widths[col] = n
	}
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, style int) error {
	return w.f.SetCellStyle(w.sheet, w.cellName(fromCol, fromRow), w.cellName(toCol, toRow), style)
}

// banner writes a merged, styled header over columns fromCol..toCol of row.
func (w *sheetWriter) banner(fromCol, toCol, row int, text string, style int) error {
	if err := w.f.SetCellValue(w.sheet, w.cellName(fromCol, row), text); err != nil {
		return err
	}
	if err := w.f.MergeCell(w.sheet, w.cellName(fromCol, row), w.cellName(toCol, row)); err != nil {
		return err
	}
	return w.style(fromCol, row, toCol, row, style)
}

// table writes a header row plus data rows at (col, row) and registers them as
// an Excel table. Nothing is written when there are no data rows.
func (w *sheetWriter) table(col, row int, label string, headers []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.row(col, row, header...); err != nil {
		return err
	}
	for i, values := range rows {
		if err := w.row(col, row+1+i, values...); err != nil {
			return err
		}
	}
	return w.f.AddTable(w.sheet, &excelize.Table{
		Range:     w.cellName(col, row) + ":" + w.cellName(col+len(headers)-1, row+len(rows)),
		Name:      w.names.next(label),
		StyleName: tableStyle,
	})
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// summary writes rows 1-3: total income, total expense and savings.
func (w *sheetWriter) summary(rep *report.Report) error {
	if err := w.row(1, 1, "Total Income", money(rep.TotalIncome)); err != nil {
		return err
	}
	if err := w.row(1, 2, "Total Expense", money(rep.TotalExpense())); err != nil {
		return err
	}
	if err := w.row(1, 3, "Savings", money(rep.Savings)); err != nil {
		return err
	}
	if err := w.style(2, 1, 2, 2, w.styles.currency); err != nil {
		return err
	}
	savings, err := w.savingsStyle(rep.SavingsPositive)
	if err != nil {
		return err
	}
	return w.style(2, 3, 2, 3, savings)
}

// expenseSummary writes the "Expense Summary" banner on row 5 and the table from A6.
func (w *sheetWriter) expenseSummary(rep *report.Report) error {
	if err := w.banner(1, 5, 5, "Expense Summary", w.styles.mainHeader); err != nil {
		return err
	}

	rows := make([][]any, len(rep.ExpenseSummary))
	for i, s := range rep.ExpenseSummary {
		rows[i] = []any{
			strings.TrimSpace(s.Name),
			s.Type,
			money(s.ActualCost.Neg()),
			money(s.Budgeted),
			money(s.Difference),
		}
	}
	headers := []string{"Expense Name", "Expense Type", "Expense", "Budget", "Difference"}
	if err := w.table(1, 6, "Expense Summary", headers, rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return w.style(3, 7, 5, 6+len(rows), w.styles.currency)
}

// income writes the "Income Sources" banner one blank row below the expense
// summary and the income table under it.
func (w *sheetWriter) income(rep *report.Report) error {
	bannerRow := len(rep.ExpenseSummary) + 8
	if err := w.banner(1, 3, bannerRow, "Income Sources", w.styles.mainHeader); err != nil {
		return err
	}

	rows := make([][]any, len(rep.Income))
	for i, in := range rep.Income {
		rows[i] = []any{in.DateString(), in.Source, money(in.Amount)}
	}
	tableRow := bannerRow + 1
	if err := w.table(1, tableRow, "Income", []string{"Date", "From", "Amount"}, rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return w.style(3, tableRow+1, 3, tableRow+len(rows), w.styles.currency)
}

// breakdown writes one Date/Cost table per expanded key, cycling over three
// lanes starting at J3, N3 and R3. Each table sits under a header with the key.
func (w *sheetWriter) breakdown(rep *report.Report) error {
	first, last := breakdownColumns[0], breakdownColumns[len(breakdownColumns)-1]+1
	if err := w.banner(first, last, 1, "Expense Break Down", w.styles.mainHeader); err != nil {
		return err
	}

	next := make([]int, len(breakdownColumns))
	for i := range next {
		next[i] = 3
	}

	for i, entry := range rep.Expanded {
		lane := i % len(breakdownColumns)
		col, row := breakdownColumns[lane], next[lane]

		if err := w.banner(col, col+1, row-1, entry.Key, w.styles.keyHeader); err != nil {
			return err
		}
		rows := make([][]any, len(entry.Transactions))
		for j, txn := range entry.Transactions {
			rows[j] = []any{txn.DateString(), money(txn.Amount.Neg())}
		}
		if err := w.table(col, row, entry.Key, []string{"Date", "Cost"}, rows); err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := w.style(col+1, row+1, col+1, row+len(rows), w.styles.currency); err != nil {
				return err
			}
		}

		next[lane] += len(entry.Transactions) + 3
	}
	return nil
}

func (w *sheetWriter) fitColumns() error {
	for col, width := range w.widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(w.sheet, name, name, float64(width+2)); err != nil {
			return err
		}
	}
	return nil
}
