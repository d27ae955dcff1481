package config

import (
	"os"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/ccollicutt/spilltrace/pkg/spill"
)

// Default values for configuration.
const (
	DefaultLargeThreshold   = 100_000
	DefaultMaxEvents        = 50_000
	DefaultReservoirSize    = 10_000
	DefaultChartPoints      = 1_000
	DefaultHistogramBuckets = 20
	DefaultTopN             = 10
	DefaultMaxLineSize      = datasize.MB
	DefaultWebhookTimeout   = 10 * time.Second
)

// Environment variable names.
const (
	EnvLogFile = "SPILLTRACE_LOG_FILE"
	EnvLogDir  = "SPILLTRACE_LOG_DIR"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogDir:     ".",
		Candidates: append([]string(nil), spill.DefaultCandidates...),
		Scanner: ScannerConfig{
			MaxLineSize: DefaultMaxLineSize,
		},
		Analysis: AnalysisConfig{
			LargeThreshold:   DefaultLargeThreshold,
			MaxEvents:        DefaultMaxEvents,
			ReservoirSize:    DefaultReservoirSize,
			ChartPoints:      DefaultChartPoints,
			HistogramBuckets: DefaultHistogramBuckets,
			TopN:             DefaultTopN,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if f := os.Getenv(EnvLogFile); f != "" {
		c.LogFile = f
	}
	if d := os.Getenv(EnvLogDir); d != "" {
		c.LogDir = d
	}
}

// ScanOptions translates the scanner settings into spill scanner options.
func (c *Config) ScanOptions() []spill.Option {
	return []spill.Option{spill.WithMaxLineSize(int(c.Scanner.MaxLineSize.Bytes()))}
}

// ResolveLogFile returns the spill log to analyse: LogFile when set,
// otherwise the first candidate found in LogDir or its parent.
func (c *Config) ResolveLogFile() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	return spill.Discover(c.LogDir, c.Candidates)
}
