// Package xlsx provides parsing of bank exports saved as Excel workbooks
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

// zipMagic is the local file header every xlsx package starts with
var zipMagic = []byte("PK\x03\x04")

// maxDateSerial bounds the numbers treated as Excel date serials (year 2173).
// Anything larger in the date column is left for the text layouts, which
// covers compact YYYYMMDD integers.
const maxDateSerial = 100000

// Parser reads the first sheet of a workbook with the same row layout as CSV exports.
type Parser struct {
	layout parser.RowLayout
}

// NewParser creates an xlsx parser for the given layout
func NewParser(layout parser.RowLayout) *Parser {
	return &Parser{layout: layout}
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "xlsx"
}

// CanParse checks the extension and the zip signature
func (p *Parser) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return false
	}
	return bytes.HasPrefix(header, zipMagic)
}

// Parse reads the first sheet and applies the row layout
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*parser.RawStatement, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	source := parser.SourceName(meta)

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", source)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], source, err)
	}

	for _, record := range records {
		p.normalizeDate(record)
	}

	return p.layout.Apply(source, records), nil
}

// normalizeDate rewrites an Excel date serial in the date column using the
// first configured date layout.
func (p *Parser) normalizeDate(record []string) {
	col := p.layout.DateColumn
	if col >= len(record) || len(p.layout.DateLayouts) == 0 {
		return
	}

	serial, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	if err != nil || serial <= 0 || serial >= maxDateSerial {
		return
	}

	date, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return
	}
	record[col] = date.Format(p.layout.DateLayouts[0])
}
