// Package cli provides the command-line interface for spilltrace.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context) int {
	return run(ctx, NewRootCommand(), os.Args[1:])
}

func run(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = 0
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "spilltrace",
		Short: "Analyze register spill trace logs",
		Long: `spilltrace is a streaming analyzer for SPILL trace logs.

Each record describes one register spill: the store and load program
counters, the spilled memory address, and the store/load ticks.

It provides:
  - Full reports with duration statistics and chart data (analyze)
  - Counting, searching and sampling without loading the log (count, search, sample)
  - Store instruction count range queries (range)

Plain, gzip, zstd and lz4 compressed logs are read transparently.

The log is taken from --file, from log_file in the config, or discovered in
--dir (spill_log.txt and friends, then the parent directory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	g.Bind(rootCmd)

	rootCmd.AddCommand(commands.NewAnalyzeCommand(g))
	rootCmd.AddCommand(commands.NewCountCommand(g))
	rootCmd.AddCommand(commands.NewSearchCommand(g))
	rootCmd.AddCommand(commands.NewSampleCommand(g))
	rootCmd.AddCommand(commands.NewRangeCommand(g))
	rootCmd.AddCommand(commands.NewDetectCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
