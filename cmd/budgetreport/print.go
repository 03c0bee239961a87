package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ui"
)

// printResult prints the summary block, the expense table and the run statistics
func printResult(result *pipeline.Result) {
	rep := result.Report

	ui.Newline()
	ui.BlueText(fmt.Sprintf("%s %d (run %s)", rep.Period.SheetName(), rep.Period.Year, rep.RunID))
	ui.Info(fmt.Sprintf("Total income:  %s", money(rep.TotalIncome)))
	ui.Info(fmt.Sprintf("Total expense: %s", money(rep.TotalExpense())))
	if rep.SavingsPositive {
		ui.Success(fmt.Sprintf("Savings:       %s", money(rep.Savings)))
	} else {
		ui.Warning(fmt.Sprintf("Savings:       %s", money(rep.Savings)))
	}

	ui.Newline()
	rows := make([][]string, 0, len(rep.ExpenseSummary))
	for _, row := range rep.ExpenseSummary {
		rows = append(rows, []string{
			strings.TrimSpace(row.Name),
			row.Type,
			money(row.ActualCost.Neg()),
			money(row.Budgeted),
			money(row.Difference),
		})
	}
	ui.Table([]string{"Expense Name", "Expense Type", "Expense", "Budget", "Difference"}, rows)

	ui.Newline()
	s := result.Stats
	ui.Info(fmt.Sprintf("%d files read (%d skipped), %d rows: %d header, %d malformed, %d ignored",
		s.Files, s.FilesSkipped, s.RowsRead, s.HeaderRows, s.Malformed, s.Ignored))
	ui.Info(result.Coverage.String())
	if n := len(result.Catalog.Skipped()); n > 0 {
		ui.Warning(fmt.Sprintf("%d budget template rows skipped", n))
	}
	if n := len(result.Validation.Warnings); n > 0 {
		ui.Warning(fmt.Sprintf("%d validation warnings (run with --verbose for details)", n))
	}
}

// printValidation lists the integrity errors that stopped the run
func printValidation(result *pipeline.Result) {
	for _, e := range result.Validation.Errors {
		ui.Warning(fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Message))
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
