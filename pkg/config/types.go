// Package config provides configuration loading and validation for spilltrace.
package config

import (
	"time"

	"github.com/c2h5oh/datasize"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogFile names the spill log explicitly. It wins over discovery.
	LogFile string `yaml:"log_file,omitempty"`

	// LogDir is searched, then its parent, for the first existing candidate.
	LogDir string `yaml:"log_dir,omitempty"`

	// Candidates is the ordered list of file names tried in LogDir.
	Candidates []string `yaml:"candidates,omitempty"`

	Scanner  ScannerConfig   `yaml:"scanner"`
	Analysis AnalysisConfig  `yaml:"analysis"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ScannerConfig tunes how log files are read.
type ScannerConfig struct {
	// MaxLineSize bounds a single line, e.g. "1MB". Longer lines abort the scan.
	MaxLineSize datasize.ByteSize `yaml:"max_line_size"`
}

// AnalysisConfig holds the full-analysis thresholds.
type AnalysisConfig struct {
	// LargeThreshold is the record count above which the streaming
	// aggregate-plus-sample strategy is used.
	LargeThreshold int `yaml:"large_threshold"`

	// MaxEvents caps how many records the small strategy keeps in memory.
	MaxEvents int `yaml:"max_events"`

	ReservoirSize    int `yaml:"reservoir_size"`
	ChartPoints      int `yaml:"chart_points"`
	HistogramBuckets int `yaml:"histogram_buckets"`
	TopN             int `yaml:"top_n"`

	// Seed fixes sampling. Zero picks a random seed per run.
	Seed uint64 `yaml:"seed,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnSpills fires only when the analysis found spills (default).
	WebhookTriggerOnSpills WebhookTrigger = "on_spills"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_spills" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
