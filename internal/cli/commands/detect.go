package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	SampleSize  int
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(g *GlobalOptions) *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Check whether a file looks like a spill log",
		Long: `Inspect the head of a file and report how much of it is spill trace data.

Reports the compression, the architecture implied by the file name, how many
sampled lines carry the SPILL prefix, and how many of those fail to parse.

Optionally generates a starter config file with --write-config.

Example:
  spilltrace detect spill_log.txt
  spilltrace detect --sample 500 spill_log_x86.txt.zst
  spilltrace detect -w spilltrace.yaml spill_log.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, g, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, g *GlobalOptions, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	d := detector.New(detector.WithSampleSize(opts.SampleSize))
	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return errors.Wrap(err, "detection failed")
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch g.Output {
	case "json":
		return outputDetectJSON(out, result)
	case "", "text":
		return outputDetectText(out, result)
	default:
		return errors.Newf("unknown output format %q", g.Output)
	}
}

func outputDetectText(w io.Writer, result *detector.Result) error {
	fmt.Fprintln(w, "=== Spill Log Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File:              %s\n", result.Path)
	fmt.Fprintf(w, "Architecture:      %s\n", result.Architecture)
	fmt.Fprintf(w, "Compression:       %s\n", result.Compression)
	fmt.Fprintf(w, "Lines sampled:     %d\n", result.SampledLines)
	fmt.Fprintf(w, "SPILL lines:       %d (%.1f%%)\n", result.SpillLines, result.SpillRatio()*100)
	fmt.Fprintf(w, "Valid records:     %d\n", result.ValidRecords)
	fmt.Fprintf(w, "Malformed records: %d\n", result.MalformedRecords)
	if result.FirstMalformedLine > 0 {
		fmt.Fprintf(w, "First malformed:   line %d\n", result.FirstMalformedLine)
	}
	fmt.Fprintln(w)

	if !result.LooksLikeSpillLog() {
		fmt.Fprintln(w, "This does not look like a spill log.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: records must start with SPILL, followed by eight comma-separated fields.")
		return nil
	}

	if ev := result.Example; ev != nil {
		fmt.Fprintln(w, "Example record:")
		fmt.Fprintf(w, "  store_pc=%s load_pc=%s address=%s duration=%d\n",
			ev.StorePC, ev.LoadPC, ev.MemoryAddress, ev.Duration())
		fmt.Fprintln(w)
	}
	return nil
}

func outputDetectJSON(w io.Writer, result *detector.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		*detector.Result
		SpillRatio        float64 `json:"spill_ratio"`
		LooksLikeSpillLog bool    `json:"looks_like_spill_log"`
	}{result, result.SpillRatio(), result.LooksLikeSpillLog()})
}

// writeStarterConfig generates a starter config file pointing at the detected log.
func writeStarterConfig(w io.Writer, result *detector.Result, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return errors.Newf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.LooksLikeSpillLog() {
		return errors.New("cannot generate config: file does not look like a spill log")
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(generateStarterConfig(result)), 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(result *detector.Result) string {
	logFile := result.Path
	if abs, err := filepath.Abs(logFile); err == nil {
		logFile = abs
	}

	return fmt.Sprintf(`# spilltrace configuration
# Generated by: spilltrace detect
# Detected: %s, %s compression, %d/%d sampled lines are spill records

log_file: %s

scanner:
  max_line_size: 1MB

analysis:
  # Logs with more records than this are sampled for charts.
  large_threshold: 100000
  max_events: 50000
  reservoir_size: 10000
  chart_points: 1000
  histogram_buckets: 20
  top_n: 10
  # seed: 42

# webhooks:
#   - name: ci
#     url: https://hooks.example.com/spills
#     token: ${SPILLTRACE_WEBHOOK_TOKEN}
#     trigger: on_spills
#     timeout: 10s
`, result.Architecture, result.Compression, result.SpillLines, result.SampledLines, logFile)
}
