// Package config loads run configuration: embedded defaults, an optional YAML
// file, then the environment (with an optional .env file).
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/catalog"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/match"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Environment variables read by ApplyEnv
const (
	EnvIgnoredTransactions = "IGNORED_TRANSACTIONS"
	EnvTemplate            = "BUDGET_TEMPLATE"
	EnvWorkbook            = "BUDGET_WORKBOOK"
	EnvDataDir             = "BUDGET_DATA_DIR"
	EnvLogLevel            = "LOG_LEVEL"
)

// yearPlaceholder in the workbook path expands to the current year
const yearPlaceholder = "{year}"

// Columns holds zero-based column positions of the bank export
type Columns struct {
	Date        int `yaml:"date"`
	Amount      int `yaml:"amount"`
	Description int `yaml:"description"`
}

// Source describes the layout of tabular bank exports
type Source struct {
	HeaderRows  int      `yaml:"header_rows"`
	Banners     []string `yaml:"banners"`
	Columns     Columns  `yaml:"columns"`
	DateLayouts []string `yaml:"date_layouts"`
}

// Config holds application configuration
type Config struct {
	Template            string   `yaml:"template"`
	TemplateSheet       string   `yaml:"template_sheet"`
	Workbook            string   `yaml:"workbook"`
	DataDir             string   `yaml:"data_dir"`
	ExpenseTypes        []string `yaml:"expense_types"`
	HeaderToken         string   `yaml:"header_token"`
	IgnoredTransactions []string `yaml:"ignored_transactions"`
	MatchType           string   `yaml:"match_type"`
	LogLevel            string   `yaml:"log_level"`
	Source              Source   `yaml:"source"`
}

// Default returns the embedded defaults
func Default() (*Config, error) {
	cfg := &Config{}
	if err := decode(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a YAML config file over the embedded defaults. Keys missing
// from the file keep their default; lists in the file replace the default list.
func LoadFile(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	cfg.IgnoredTransactions = compact(cfg.IgnoredTransactions)
	return nil
}

// Load builds the run configuration: defaults, then the file at path (if not
// empty), then .env and the process environment.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = Default()
	} else {
		cfg, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return "", false
		}
		return value, true
	}

	if value, ok := get(EnvIgnoredTransactions); ok {
		c.IgnoredTransactions = SplitIgnoreList(value)
	}
	if value, ok := get(EnvTemplate); ok {
		c.Template = value
	}
	if value, ok := get(EnvWorkbook); ok {
		c.Workbook = value
	}
	if value, ok := get(EnvDataDir); ok {
		c.DataDir = value
	}
	if value, ok := get(EnvLogLevel); ok {
		c.LogLevel = value
	}
}

// SplitIgnoreList splits a semicolon-delimited ignore list. Segments are used
// verbatim; empty segments are dropped.
func SplitIgnoreList(value string) []string {
	return compact(strings.Split(value, ";"))
}

func compact(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}

// WorkbookPath expands {year} in the workbook path
func (c *Config) WorkbookPath(now time.Time) string {
	return strings.ReplaceAll(c.Workbook, yearPlaceholder, strconv.Itoa(now.Year()))
}

// RowLayout converts the source section for the tabular parsers
func (c *Config) RowLayout() parser.RowLayout {
	return parser.RowLayout{
		HeaderRows:        c.Source.HeaderRows,
		Banners:           append([]string(nil), c.Source.Banners...),
		DateColumn:        c.Source.Columns.Date,
		AmountColumn:      c.Source.Columns.Amount,
		DescriptionColumn: c.Source.Columns.Description,
		DateLayouts:       append([]string(nil), c.Source.DateLayouts...),
	}
}

// CatalogOptions returns the header recognition settings for the template
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		ExpenseTypes: append([]string(nil), c.ExpenseTypes...),
		HeaderToken:  c.HeaderToken,
	}
}

// Validate checks the configuration for values no run could use
func (c *Config) Validate() error {
	if c.Template == "" {
		return fmt.Errorf("template path is required")
	}
	if c.Workbook == "" {
		return fmt.Errorf("workbook path is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if _, err := match.ParseMatchType(c.MatchType); err != nil {
		return err
	}
	if err := c.RowLayout().Validate(); err != nil {
		return fmt.Errorf("invalid source layout: %w", err)
	}
	return nil
}
