package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the budget template or the transaction
	// directory does not exist. It is terminal for a run.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedRow marks a row that is missing a required field. The row is
	// skipped and the run continues.
	ErrMalformedRow = errors.New("malformed row")

	// ErrEmptyResult is returned when no spending or income was observed.
	ErrEmptyResult = errors.New("no spending or income transactions found")
)

// MalformedRowError describes a skipped row. It matches ErrMalformedRow with errors.Is.
type MalformedRowError struct {
	Source string // file or sheet the row came from
	Row    int    // 1-based row number
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("%s row %d: %s", e.Source, e.Row, e.Reason)
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}

// NewMalformedRow creates a MalformedRowError.
func NewMalformedRow(source string, row int, format string, args ...any) *MalformedRowError {
	return &MalformedRowError{
		Source: source,
		Row:    row,
		Reason: fmt.Sprintf(format, args...),
	}
}
