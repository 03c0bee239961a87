package parser

import (
	"context"
	"io"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// Parser is the strategy interface for all transaction file formats
type Parser interface {
	// Name returns parser identifier (e.g., "csv", "ofx")
	Name() string

	// CanParse checks if parser can handle this file
	// Returns true if this parser should be used for the file
	CanParse(path string, header []byte) bool

	// Parse extracts transactions from the file in file order
	Parse(ctx context.Context, r io.Reader, meta *Metadata) (*RawStatement, error)
}

// RawStatement is the content of one transaction file
type RawStatement struct {
	// Transactions in file order. Source is set to the file path.
	Transactions []domain.Transaction

	// Skipped holds rows dropped because a required field was missing or invalid
	Skipped []*domain.MalformedRowError

	// RowsRead counts non-blank rows, including header and banner rows
	RowsRead int

	// HeaderRows counts rows dropped as leading header rows or banner rows
	HeaderRows int
}
