// Package pipeline runs one monthly report: budget catalog, bank ledger,
// aggregation, validation and rendering, in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/catalog"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/config"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ledger"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/logging"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/match"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/registry"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/report"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/validate"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/workbook"
)

// TotalSteps is the number of progress steps reported by Run
const TotalSteps = 5

// ErrValidation is returned when the report fails its integrity checks.
// The workbook is not touched.
var ErrValidation = errors.New("report failed validation")

// ProgressCallback is called when a stage starts
type ProgressCallback func(step, total int, message string)

// Options controls a run
type Options struct {
	// Month overrides the derived reporting month (YYYY-MM)
	Month string
	// DryRun stops before the workbook is written
	DryRun bool
	// Progress receives stage updates; may be nil
	Progress ProgressCallback
}

// Result holds everything a run produced
type Result struct {
	RunID        string
	Catalog      *catalog.Catalog
	Ledger       *domain.Ledger
	Stats        ledger.Stats
	Report       *report.Report
	Validation   *validate.ValidationResult
	Coverage     validate.Coverage
	WorkbookPath string
	Rendered     bool
}

// Pipeline orchestrates a report run
type Pipeline struct {
	cfg    *config.Config
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a pipeline. cfg must have passed Validate.
func New(cfg *config.Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, now: time.Now}
}

// LoadCatalog reads the template and folds it into a budget catalog.
// A missing template fails with domain.ErrSourceNotFound.
func (p *Pipeline) LoadCatalog() (*catalog.Catalog, error) {
	return p.loadCatalog(p.logger)
}

func (p *Pipeline) loadCatalog(logger zerolog.Logger) (*catalog.Catalog, error) {
	rows, err := workbook.ReadTemplateRows(p.cfg.Template, p.cfg.TemplateSheet)
	if err != nil {
		return nil, err
	}
	c := catalog.BuildFromSource(p.cfg.Template, rows, p.cfg.CatalogOptions(), logger)
	logger.Info().
		Str("template", p.cfg.Template).
		Int("entries", c.Len()).
		Int("skipped", len(c.Skipped())).
		Msg("budget catalog loaded")
	return c, nil
}

// Prepare builds and validates the report without writing the workbook.
func (p *Pipeline) Prepare(ctx context.Context, opts Options) (*Result, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(int, int, string) {}
	}

	runID := uuid.NewString()
	logger := logging.WithRunID(p.logger, runID)
	result := &Result{RunID: runID, WorkbookPath: p.cfg.WorkbookPath(p.now())}

	var period report.Period
	if opts.Month != "" {
		parsed, err := report.ParsePeriod(opts.Month)
		if err != nil {
			return nil, err
		}
		period = parsed
	}

	progress(1, TotalSteps, "Loading budget template")
	cat, err := p.loadCatalog(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	result.Catalog = cat

	progress(2, TotalSteps, "Reading bank transactions")
	matcher, err := match.New(cat.Keys(), p.cfg.IgnoredTransactions, match.MatchType(p.cfg.MatchType))
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}
	reg, err := registry.New(p.cfg.RowLayout())
	if err != nil {
		return nil, fmt.Errorf("failed to create parser registry: %w", err)
	}
	led, stats, err := ledger.NewBuilder(reg, matcher, logger).BuildDir(ctx, p.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions from %s: %w", p.cfg.DataDir, err)
	}
	result.Ledger = led
	result.Stats = stats
	result.Coverage = validate.CoverageOf(stats)
	logger.Info().
		Int("files", stats.Files).
		Int("rows", stats.RowsRead).
		Int("malformed", stats.Malformed).
		Int("ignored", stats.Ignored).
		Int("matched", stats.Matched).
		Int("unmatched", stats.Unmatched).
		Msg("bank ledger built")

	progress(3, TotalSteps, "Aggregating report")
	rep, err := report.Build(cat, led, matcher, report.Options{RunID: runID, Period: period})
	if err != nil {
		return nil, err
	}
	result.Report = rep

	progress(4, TotalSteps, "Validating report")
	validation := validate.ValidateLedger(led)
	validation.Merge(validate.ValidateReport(rep, cat.Entries()))
	result.Validation = validation
	for _, w := range validation.Warnings {
		logger.Debug().Str("entity", w.Entity).Str("id", w.ID).Msg(w.Message)
	}
	if validation.HasErrors() {
		for _, e := range validation.Errors {
			logger.Error().Str("entity", e.Entity).Str("id", e.ID).Str("field", e.Field).Msg(e.Message)
		}
		return result, fmt.Errorf("%w: %d errors", ErrValidation, len(validation.Errors))
	}

	return result, nil
}

// Run prepares the report and writes it into the workbook unless DryRun is set.
// When any stage fails the workbook is left untouched.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result, err := p.Prepare(ctx, opts)
	if err != nil {
		return result, err
	}

	if opts.DryRun {
		return result, nil
	}

	if opts.Progress != nil {
		opts.Progress(5, TotalSteps, "Writing workbook")
	}
	logger := logging.WithRunID(p.logger, result.RunID)
	if err := workbook.NewRenderer(result.WorkbookPath, logger).Render(result.Report); err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}
	result.Rendered = true
	return result, nil
}
