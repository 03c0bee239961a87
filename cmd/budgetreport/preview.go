package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/output"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ui"
)

type previewFlags struct {
	json       bool
	outputFile string
}

func (a *app) newPreviewCmd() *cobra.Command {
	var pf previewFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the report without touching the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPreview(cmd, pf)
		},
	}
	cmd.Flags().BoolVar(&pf.json, "json", false, "Print the report as JSON")
	cmd.Flags().StringVarP(&pf.outputFile, "output", "o", "", "Write the JSON report to this file (implies --json)")
	return cmd
}

func (a *app) runPreview(cmd *cobra.Command, pf previewFlags) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.newLogger(cfg)

	asJSON := pf.json || pf.outputFile != ""
	if asJSON && pf.outputFile == "" {
		// stdout carries the JSON document
		ui.SetOutput(a.stderr)
		defer ui.SetOutput(a.stdout)
	}

	result, err := pipeline.New(cfg, logger).Prepare(cmd.Context(), pipeline.Options{Month: a.flags.month})
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) && result != nil {
			printValidation(result)
		}
		return err
	}

	if !asJSON {
		printResult(result)
		return nil
	}

	if pf.outputFile == "" {
		return output.WriteReport(result.Report, a.stdout)
	}
	if err := output.WriteReportToFile(result.Report, output.WriteOptions{FilePath: pf.outputFile}); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Wrote %s report to %s", result.Report.Period, pf.outputFile))
	return nil
}
