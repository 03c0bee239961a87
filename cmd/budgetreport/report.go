package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ui"
)

func (a *app) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the month's sheet into the budget workbook (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runReport,
	}
	cmd.Flags().BoolVar(&a.flags.dryRun, "dry-run", false, "Build and validate the report without writing the workbook")
	return cmd
}

func (a *app) runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.newLogger(cfg)

	if !a.flags.verbose {
		ui.Header("Monthly Budget Report")
	}

	result, err := pipeline.New(cfg, logger).Run(cmd.Context(), pipeline.Options{
		Month:    a.flags.month,
		DryRun:   a.flags.dryRun,
		Progress: a.progress(),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) && result != nil {
			printValidation(result)
		}
		return err
	}

	printResult(result)

	if result.Rendered {
		ui.Success(fmt.Sprintf("Wrote sheet %s to %s", result.Report.Period.SheetName(), result.WorkbookPath))
	} else {
		ui.Info(fmt.Sprintf("Dry run complete. Would write sheet %s to %s", result.Report.Period.SheetName(), result.WorkbookPath))
	}
	return nil
}

// progress returns the step printer, or nil in verbose mode where the logs
// already narrate each stage
func (a *app) progress() pipeline.ProgressCallback {
	if a.flags.verbose {
		return nil
	}
	return func(step, total int, message string) {
		ui.Step(step, total, message)
	}
}
