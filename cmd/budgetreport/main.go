// Command budgetreport writes a monthly budget report sheet from a budget
// template and a directory of bank exports.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/ui"
)

const (
	version = "0.1.0"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command tree and maps any failure to exit code 1
func execute(args []string, stdout, stderr io.Writer) int {
	ui.SetOutput(stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
