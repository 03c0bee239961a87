package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/config"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/logging"
)

// flags shared by every subcommand
type flags struct {
	configFile string
	template   string
	sheet      string
	workbook   string
	dataDir    string
	ignore     []string
	matchType  string
	month      string
	logLevel   string
	verbose    bool
	dryRun     bool
}

// app carries the parsed flags and the writers of one invocation
type app struct {
	flags  flags
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "budgetreport",
		Short: "Monthly budget report from bank exports",
		Long: `budgetreport groups a month of bank transactions by the keys of a budget
template and writes the month's sheet (summary, expense table, income table and
per-key breakdown) into the yearly budget workbook.`,
		Example: `  # Write this month's sheet using ./Budget and ./Data
  budgetreport

  # Preview without touching the workbook
  budgetreport preview --month 2024-03

  # Export the report as JSON
  budgetreport preview --json --output march.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          a.runReport,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "YAML config file (defaults are embedded)")
	pf.StringVar(&a.flags.template, "template", "", "Budget template workbook")
	pf.StringVar(&a.flags.sheet, "sheet", "", "Sheet of the template holding the budget")
	pf.StringVar(&a.flags.workbook, "workbook", "", "Report workbook; {year} expands to the current year")
	pf.StringVar(&a.flags.dataDir, "data", "", "Directory holding the month's bank exports")
	pf.StringArrayVar(&a.flags.ignore, "ignore", nil, "Drop transactions whose description contains this text (repeatable)")
	pf.StringVar(&a.flags.matchType, "match", "", "Key matching: contains, exact or prefix")
	pf.StringVar(&a.flags.month, "month", "", "Reporting month (YYYY-MM); derived from the transactions when empty")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Show detailed logs instead of progress steps")
	root.Flags().BoolVar(&a.flags.dryRun, "dry-run", false, "Build and validate the report without writing the workbook")

	root.AddCommand(
		a.newReportCmd(),
		a.newPreviewCmd(),
		a.newCatalogCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "budgetreport version %s\n", version)
		},
	}
}

// loadConfig layers the flags over the file and environment configuration
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		return nil, err
	}

	f := a.flags
	if f.template != "" {
		cfg.Template = f.template
	}
	if f.sheet != "" {
		cfg.TemplateSheet = f.sheet
	}
	if f.workbook != "" {
		cfg.Workbook = f.workbook
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if len(f.ignore) > 0 {
		cfg.IgnoredTransactions = config.SplitIgnoreList(strings.Join(f.ignore, ";"))
	}
	if f.matchType != "" {
		cfg.MatchType = f.matchType
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (a *app) newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: a.flags.verbose,
		Out:    a.stderr,
	})
}
