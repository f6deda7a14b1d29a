// Package main provides the entry point for the timelens CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timelens/cmd/timelens/commands"
	"github.com/Sumatoshi-tech/timelens/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "timelens",
		Short: "Timelens - git temporal view extraction",
		Long: `Timelens extracts per-project commit history, line-level blame
history, and image asset version trails into a single temporal document.

Commands:
  extract   Extract the temporal document from configured repositories
  validate  Validate a temporal document against the embedded schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "timelens %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
