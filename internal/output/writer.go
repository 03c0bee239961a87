package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/report"
)

// WriteOptions configures how the report is written
type WriteOptions struct {
	FilePath string // Output path (empty = stdout)
}

// WriteReport serializes a Report to JSON with 2-space indentation
func WriteReport(rep *report.Report, w io.Writer) error {
	if rep == nil {
		return fmt.Errorf("report cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}

	return nil
}

// WriteReportToFile writes a Report to file or stdout based on options
func WriteReportToFile(rep *report.Report, opts WriteOptions) (err error) {
	if rep == nil {
		return fmt.Errorf("report cannot be nil")
	}

	// Write to stdout if no file path specified
	if opts.FilePath == "" {
		return WriteReport(rep, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteReport(rep, f); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", opts.FilePath, err)
	}

	return nil
}
