package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/pipeline"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/ui"
)

func (a *app) newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the budget entries parsed from the template",
		Args:  cobra.NoArgs,
		RunE:  a.runCatalog,
	}
}

func (a *app) runCatalog(_ *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.newLogger(cfg)

	c, err := pipeline.New(cfg, logger).LoadCatalog()
	if err != nil {
		return err
	}

	ui.BlueText(fmt.Sprintf("%s (%d entries)", cfg.Template, c.Len()))
	rows := make([][]string, 0, c.Len())
	for _, entry := range c.Entries() {
		rows = append(rows, []string{entry.Key, entry.Name, entry.ExpenseType, money(entry.Budgeted)})
	}
	ui.Table([]string{"Key", "Name", "Type", "Budget"}, rows)

	for _, skipped := range c.Skipped() {
		ui.Warning(skipped.Error())
	}
	return nil
}
