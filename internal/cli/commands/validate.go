package commands

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a spilltrace configuration file without running analysis.

Checks:
  - YAML syntax
  - Log file or directory is set
  - Size and analysis limits
  - Webhook URLs and triggers
  - Spill log existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}

	a := cfg.Analysis
	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Max line size:   %s\n", cfg.Scanner.MaxLineSize.HR())
	fmt.Fprintf(out, "  Large threshold: %d\n", a.LargeThreshold)
	fmt.Fprintf(out, "  Reservoir size:  %d\n", a.ReservoirSize)
	fmt.Fprintf(out, "  Webhooks:        %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		fmt.Fprintf(out, "    %d. [%s] %s\n", i+1, wh.Trigger, wh.Name)
	}

	path, err := cfg.ResolveLogFile()
	if err != nil {
		fmt.Fprintf(out, "\nWarning: no spill log found: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "\nSpill log: %s\n", path)
	return nil
}
