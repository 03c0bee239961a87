package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

// Extensions lists the transaction file extensions the scanner picks up
var Extensions = []string{".csv", ".xlsx", ".ofx", ".qfx"}

// Scanner lists a transaction directory and finds statement files
type Scanner struct {
	rootDir string
	now     func() time.Time
}

// New creates a new scanner for the given directory
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir, now: time.Now}
}

// ScanResult represents a found file with metadata
type ScanResult struct {
	Path     string
	Metadata *parser.Metadata
}

// Scan lists the directory (not recursively) and returns every statement file
// in listing order. A missing directory is reported as domain.ErrSourceNotFound.
func (s *Scanner) Scan() ([]ScanResult, error) {
	rootDir := s.expandHome(s.rootDir)

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("transaction directory %s: %w", rootDir, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var results []ScanResult
	for _, entry := range entries {
		// Skip directories
		if entry.IsDir() {
			continue
		}

		// Only process files with known extensions
		if !IsStatementFile(entry.Name()) {
			continue
		}

		path := filepath.Join(rootDir, entry.Name())
		meta, err := parser.NewMetadata(path, s.now())
		if err != nil {
			return nil, fmt.Errorf("scan failed for %s: %w", path, err)
		}

		results = append(results, ScanResult{
			Path:     path,
			Metadata: meta,
		})
	}

	return results, nil
}

// IsStatementFile checks if file has a recognized statement extension
func IsStatementFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
