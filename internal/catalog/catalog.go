// Package catalog builds the budget catalog from the rows of the budget template.
//
// The template is a single column of line items split into sections by category
// header rows:
//
//	Name            Budget   Key
//	Expense                           <- generic divider, no state change
//	Entertainment                     <- header: following items are "Entertainment"
//	Netflix         -20      NETFLIX
//	Utilities                         <- header
//	Hydro           -80      HYDRO
//
// Rows must be folded in source order because each entry takes the expense type
// of the nearest preceding header.
package catalog

import (
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
)

// DefaultExpenseTypes are the category header labels recognized by default.
var DefaultExpenseTypes = []string{"Entertainment", "Utilities", "Others"}

// DefaultHeaderToken is the generic section divider.
const DefaultHeaderToken = "expense"

// Row is one template row with its three positional fields as raw cell text.
type Row struct {
	Number   int // 1-based row number in the sheet
	Name     string
	Budgeted string // Empty means 0
	Key      string
}

// Options controls header recognition.
type Options struct {
	ExpenseTypes []string
	HeaderToken  string
}

// DefaultOptions returns the stock header labels.
func DefaultOptions() Options {
	types := make([]string, len(DefaultExpenseTypes))
	copy(types, DefaultExpenseTypes)
	return Options{
		ExpenseTypes: types,
		HeaderToken:  DefaultHeaderToken,
	}
}

// Catalog maps budget keys to entries and keeps the order in which keys first
// appeared. That order is the matcher's precedence order.
type Catalog struct {
	keys    []string
	entries map[string]domain.BudgetEntry
	skipped []*domain.MalformedRowError
}

func newCatalog() *Catalog {
	return &Catalog{
		keys:    []string{},
		entries: make(map[string]domain.BudgetEntry),
	}
}

// put stores entry. A duplicate key replaces the earlier entry but keeps its position.
func (c *Catalog) put(entry domain.BudgetEntry) {
	if _, exists := c.entries[entry.Key]; !exists {
		c.keys = append(c.keys, entry.Key)
	}
	c.entries[entry.Key] = entry
}

// Get returns the entry for key.
func (c *Catalog) Get(key string) (domain.BudgetEntry, bool) {
	entry, ok := c.entries[key]
	return entry, ok
}

// Keys returns the budget keys in catalog order.
func (c *Catalog) Keys() []string {
	result := make([]string, len(c.keys))
	copy(result, c.keys)
	return result
}

// Entries returns the entries in catalog order.
func (c *Catalog) Entries() []domain.BudgetEntry {
	result := make([]domain.BudgetEntry, 0, len(c.keys))
	for _, key := range c.keys {
		result = append(result, c.entries[key])
	}
	return result
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.keys) }

// Skipped returns the rows dropped because a required field was missing or invalid.
func (c *Catalog) Skipped() []*domain.MalformedRowError {
	result := make([]*domain.MalformedRowError, len(c.skipped))
	copy(result, c.skipped)
	return result
}

// builder is the fold accumulator: the current expense type plus the catalog so far.
type builder struct {
	currentType string
	catalog     *Catalog
	labels      map[string]string // lower-cased label -> title-cased label
	token       string
	source      string
	logger      zerolog.Logger
}

// Build folds template rows into a Catalog. Rows that are neither headers nor
// complete line items are skipped and logged.
func Build(rows []Row, opts Options, logger zerolog.Logger) *Catalog {
	return BuildFromSource("", rows, opts, logger)
}

// BuildFromSource is Build with the source name attached to skipped rows.
func BuildFromSource(source string, rows []Row, opts Options, logger zerolog.Logger) *Catalog {
	title := cases.Title(language.Und)
	labels := make(map[string]string, len(opts.ExpenseTypes))
	for _, t := range opts.ExpenseTypes {
		lower := strings.ToLower(strings.TrimSpace(t))
		if lower == "" {
			continue
		}
		labels[lower] = title.String(lower)
	}

	token := strings.ToLower(strings.TrimSpace(opts.HeaderToken))
	if token == "" {
		token = DefaultHeaderToken
	}

	b := &builder{
		currentType: domain.NoType,
		catalog:     newCatalog(),
		labels:      labels,
		token:       token,
		source:      source,
		logger:      logger,
	}
	for _, row := range rows {
		b.step(row)
	}
	return b.catalog
}

func (b *builder) step(row Row) {
	if isBlank(row) {
		return
	}

	lowerName := strings.ToLower(strings.TrimSpace(row.Name))

	if lowerName == b.token {
		return
	}
	if label, ok := b.labels[lowerName]; ok {
		b.currentType = label
		return
	}

	if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Key) == "" {
		b.skip(row, "key/name not found for name %q key %q", row.Name, row.Key)
		return
	}

	budgeted, err := domain.ParseAmount(row.Budgeted)
	if err != nil {
		b.skip(row, "budget for %q: %v", row.Name, err)
		return
	}

	entry, err := domain.NewBudgetEntry(strings.TrimSpace(row.Key), row.Name, budgeted, b.currentType)
	if err != nil {
		b.skip(row, "%v", err)
		return
	}
	b.catalog.put(*entry)
}

func (b *builder) skip(row Row, format string, args ...any) {
	malformed := domain.NewMalformedRow(b.source, row.Number, format, args...)
	b.catalog.skipped = append(b.catalog.skipped, malformed)
	b.logger.Warn().
		Str("source", b.source).
		Int("row", row.Number).
		Str("reason", malformed.Reason).
		Msg("skipping budget template row")
}

func isBlank(row Row) bool {
	return strings.TrimSpace(row.Name) == "" &&
		strings.TrimSpace(row.Budgeted) == "" &&
		strings.TrimSpace(row.Key) == ""
}
