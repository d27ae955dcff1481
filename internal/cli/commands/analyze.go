package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Seed    uint64
	Verbose bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(g *GlobalOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Produce a full analysis report for a spill log",
		Long: `Analyze a spill log and report duration statistics, distinct
addresses and program counters, and chart data.

Logs above analysis.large_threshold records are streamed into exact
aggregates plus a reservoir sample; charts are then drawn from the sample.

Exit codes:
  0 - Spills found and reported
  1 - No spills found
  2 - Configuration or runtime error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Sampling seed (0 uses analysis.seed, or random)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include histogram, PC pairs and address heatmap")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnSpills), "When to fire webhook (on_spills|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, g *GlobalOptions, opts *AnalyzeOptions) error {
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}

	formatter, err := g.Formatter(opts.Verbose)
	if err != nil {
		return err
	}

	hooks, err := collectWebhooks(e.cfg, opts)
	if err != nil {
		return err
	}

	var analyzerOpts []analyzer.AnalyzerOption
	analyzerOpts = append(analyzerOpts, analyzer.WithLogger(e.logger))
	if opts.Seed != 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithSeed(opts.Seed))
	}

	report, err := analyzer.NewAnalyzer(e.cfg, analyzerOpts...).Analyze(e.ctx, e.path)
	if err != nil {
		return errors.Wrap(err, "analysis failed")
	}

	if err := formatter.FormatReport(e.ctx, report, e.out); err != nil {
		return errors.Wrap(err, "formatting output")
	}

	// Webhook failures are logged and never change the exit code.
	if len(hooks) > 0 {
		sent, failed := webhook.NewClient(e.logger).Dispatch(e.ctx, hooks, report)
		level.Debug(e.logger).Log("msg", "webhooks dispatched", "sent", sent, "failed", failed)
	}

	if !report.HasSpills() {
		ExitCode = 1
	}
	return nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := append([]config.WebhookConfig(nil), cfg.Webhooks...)
	if opts.WebhookURL == "" {
		return webhooks, nil
	}

	wh := config.WebhookConfig{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: config.WebhookTrigger(opts.WebhookTrigger),
	}
	if err := config.ValidateWebhook(&wh); err != nil {
		return nil, errors.Wrap(err, "webhook flags")
	}
	return append(webhooks, wh), nil
}
