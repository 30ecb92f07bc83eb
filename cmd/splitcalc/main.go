// Command splitcalc prices a bill selection offline, using the same
// calculator the server runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "splitcalc",
		Short: "Work out a fair share of a shared bill",
		Long: `splitcalc reads a bill from a YAML file and shows what a selection of
its items costs, including a proportional share of the bill's tax and tip.`,
		SilenceUsage: true,
	}

	root.AddCommand(quoteCmd())
	root.AddCommand(progressCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "splitcalc %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
