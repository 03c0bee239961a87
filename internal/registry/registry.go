package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parsers/csv"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parsers/ofx"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parsers/xlsx"
)

// headerSize is the number of bytes read for format detection
const headerSize = 512

// Registry holds all registered parsers
type Registry struct {
	parsers []parser.Parser
	names   map[string]bool
}

// New creates a registry with the built-in csv, xlsx and ofx parsers.
// The tabular parsers share the given row layout.
func New(layout parser.RowLayout) (*Registry, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid row layout: %w", err)
	}

	r := &Registry{names: make(map[string]bool)}
	builtins := []parser.Parser{
		csv.NewParser(layout),
		xlsx.NewParser(layout),
		ofx.NewParser(),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register built-in parser: %w", err)
		}
	}
	return r, nil
}

// MustNew is New for callers holding a layout known to be valid. It panics on error.
func MustNew(layout parser.RowLayout) *Registry {
	r, err := New(layout)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds a parser. Names must be unique.
func (r *Registry) Register(p parser.Parser) error {
	if p == nil {
		return fmt.Errorf("cannot register nil parser")
	}
	name := p.Name()
	if r.names[name] {
		return fmt.Errorf("parser %q already registered", name)
	}
	r.names[name] = true
	r.parsers = append(r.parsers, p)
	return nil
}

// FindParser returns the first registered parser that accepts the file.
// Reads first 512 bytes for format detection via header inspection.
func (r *Registry) FindParser(path string) (parser.Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// Short files are fine: parsers receive whatever was read (0 to 512 bytes)
	header = header[:n]

	for _, p := range r.parsers {
		if p.CanParse(path, header) {
			return p, nil
		}
	}

	return nil, fmt.Errorf("no parser found for file: %s", path)
}

// ListParsers returns all registered parser names in registration order
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
