// Package ledger folds bank transaction files into a domain.Ledger.
package ledger

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/match"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/registry"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/scanner"
)

// Matcher resolves a transaction description to a budget key.
type Matcher interface {
	Match(description string) match.Result
}

// ParserFinder picks the parser for a file.
type ParserFinder interface {
	FindParser(path string) (parser.Parser, error)
}

// Stats counts what happened to every row read.
type Stats struct {
	Files        int // files parsed
	FilesSkipped int // recognized extension, but no parser accepted the content
	RowsRead     int
	HeaderRows   int
	Malformed    int
	Ignored      int
	Matched      int
	Unmatched    int

	// Skipped holds every malformed row in read order
	Skipped []*domain.MalformedRowError
}

// Recorded returns the number of transactions that reached the ledger.
func (s Stats) Recorded() int {
	return s.Matched + s.Unmatched
}

// Builder is the bank ledger fold. It is not safe for concurrent use; a
// Builder is meant to build one ledger per run.
type Builder struct {
	finder  ParserFinder
	matcher Matcher
	logger  zerolog.Logger

	ledger *domain.Ledger
	stats  Stats
}

// NewBuilder creates a builder that resolves descriptions with matcher.
func NewBuilder(finder ParserFinder, matcher Matcher, logger zerolog.Logger) *Builder {
	return &Builder{
		finder:  finder,
		matcher: matcher,
		logger:  logger,
		ledger:  domain.NewLedger(),
	}
}

// Build is the one-shot form: it scans dir with the default row layout and
// substring matching against candidateKeys, dropping anything in ignoreList.
func Build(ctx context.Context, dir string, candidateKeys, ignoreList []string, logger zerolog.Logger) (*domain.Ledger, Stats, error) {
	m, err := match.New(candidateKeys, ignoreList, match.MatchTypeContains)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to create matcher: %w", err)
	}
	return NewBuilder(registry.MustNew(parser.DefaultRowLayout()), m, logger).BuildDir(ctx, dir)
}

// BuildDir reads every statement file in dir in listing order.
// A missing directory fails with domain.ErrSourceNotFound.
func (b *Builder) BuildDir(ctx context.Context, dir string) (*domain.Ledger, Stats, error) {
	files, err := scanner.New(dir).Scan()
	if err != nil {
		return nil, b.stats, err
	}
	return b.BuildFiles(ctx, files)
}

// BuildFiles reads the given files in order and returns the finished ledger.
func (b *Builder) BuildFiles(ctx context.Context, files []scanner.ScanResult) (*domain.Ledger, Stats, error) {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, b.stats, err
		}
		if err := b.addFile(ctx, file); err != nil {
			return nil, b.stats, err
		}
	}
	return b.ledger, b.stats, nil
}

func (b *Builder) addFile(ctx context.Context, file scanner.ScanResult) error {
	p, err := b.finder.FindParser(file.Path)
	if err != nil {
		b.stats.FilesSkipped++
		b.logger.Warn().Err(err).Str("file", file.Path).Msg("skipping unreadable transaction file")
		return nil
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Path, err)
	}
	raw, err := p.Parse(ctx, f, file.Metadata)
	// Close file immediately after parsing instead of deferring to avoid file descriptor accumulation
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("failed to parse %s with %s parser: %w", file.Path, p.Name(), err)
	}
	if closeErr != nil {
		b.logger.Warn().Err(closeErr).Str("file", file.Path).Msg("failed to close transaction file")
	}

	b.stats.Files++
	b.logger.Debug().
		Str("file", file.Path).
		Str("parser", p.Name()).
		Int("transactions", len(raw.Transactions)).
		Int("skipped", len(raw.Skipped)).
		Msg("parsed transaction file")

	b.AddStatement(raw)
	return nil
}

// AddStatement folds one parsed file into the ledger.
func (b *Builder) AddStatement(raw *parser.RawStatement) {
	b.stats.RowsRead += raw.RowsRead
	b.stats.HeaderRows += raw.HeaderRows
	for _, skipped := range raw.Skipped {
		b.stats.Malformed++
		b.stats.Skipped = append(b.stats.Skipped, skipped)
		b.logger.Warn().
			Str("source", skipped.Source).
			Int("row", skipped.Row).
			Str("reason", skipped.Reason).
			Msg("skipping malformed transaction row")
	}
	for _, txn := range raw.Transactions {
		b.Add(txn)
	}
}

// Add routes one transaction. Ignored transactions touch neither buckets nor totals.
func (b *Builder) Add(txn domain.Transaction) {
	result := b.matcher.Match(txn.Description)
	switch result.Kind {
	case match.Ignored:
		b.stats.Ignored++
		b.logger.Debug().
			Str("description", txn.Description).
			Str("pattern", result.Key).
			Msg("ignoring transaction")
		return
	case match.Matched:
		b.stats.Matched++
	default:
		b.stats.Unmatched++
	}
	b.ledger.Record(result.Key, txn)
}

// Ledger returns the ledger built so far.
func (b *Builder) Ledger() *domain.Ledger { return b.ledger }

// Stats returns the counters collected so far.
func (b *Builder) Stats() Stats { return b.stats }
