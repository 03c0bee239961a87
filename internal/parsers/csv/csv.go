// Package csv provides CSV bank export parsing
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

// Parser reads CSV bank exports laid out according to a parser.RowLayout.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	layout parser.RowLayout
}

// NewParser creates a CSV parser for the given layout
func NewParser(layout parser.RowLayout) *Parser {
	return &Parser{layout: layout}
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if name := parser.SourceName(meta); name != "" {
		return fmt.Sprintf(" from %s", name)
	}
	return ""
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "csv"
}

// CanParse checks the extension (.csv, case-insensitive) and that the header is readable CSV
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		return false
	}

	// An empty file is still a CSV; Parse reports it as having no rows
	if len(header) == 0 {
		return true
	}

	r := newReader(strings.NewReader(string(header)))
	_, err := r.Read()
	return err == nil || err == io.EOF
}

// Parse reads every record and applies the row layout
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*parser.RawStatement, error) {
	// Check if context was cancelled before parsing
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	records, err := readRecords(newReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content%s: %w", getFileInfo(meta), err)
	}

	return p.layout.Apply(parser.SourceName(meta), records), nil
}

// readRecords reads every record into the slot of the file line it starts on.
// Blank lines, which the reader drops, come back as nil records so row numbers
// match the spreadsheet view of the file.
func readRecords(r *csv.Reader) ([][]string, error) {
	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		for len(records) < line-1 {
			records = append(records, nil)
		}
		records = append(records, record)
	}
}

func newReader(r io.Reader) *csv.Reader {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	return csvReader
}
