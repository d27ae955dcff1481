package config

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}

	return cfg, nil
}

// FromEnvironment returns the default configuration with environment
// overrides applied, for runs without a config file.
func FromEnvironment() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	return cfg
}

// Validate checks a configuration for errors and fills in defaults for
// zero-valued settings.
func Validate(cfg *Config) error {
	if cfg.LogFile == "" && cfg.LogDir == "" {
		return errors.New("log_file or log_dir is required")
	}

	if len(cfg.Candidates) == 0 && cfg.LogFile == "" {
		return errors.New("candidates: at least one candidate file name is required when log_file is unset")
	}
	for i, c := range cfg.Candidates {
		if strings.TrimSpace(c) == "" {
			return errors.Newf("candidates[%d]: empty file name", i)
		}
	}

	if cfg.Scanner.MaxLineSize == 0 {
		cfg.Scanner.MaxLineSize = DefaultMaxLineSize
	}
	if cfg.Scanner.MaxLineSize < 64 {
		return errors.Newf("scanner.max_line_size: %s is too small (minimum 64B)", cfg.Scanner.MaxLineSize.HR())
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		return errors.Wrap(err, "analysis")
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return errors.Wrapf(err, "webhooks[%d] (%s)", i, name)
		}
	}

	return nil
}

func validateAnalysis(a *AnalysisConfig) error {
	settings := []struct {
		name  string
		value *int
		def   int
	}{
		{"large_threshold", &a.LargeThreshold, DefaultLargeThreshold},
		{"max_events", &a.MaxEvents, DefaultMaxEvents},
		{"reservoir_size", &a.ReservoirSize, DefaultReservoirSize},
		{"chart_points", &a.ChartPoints, DefaultChartPoints},
		{"histogram_buckets", &a.HistogramBuckets, DefaultHistogramBuckets},
		{"top_n", &a.TopN, DefaultTopN},
	}
	for _, s := range settings {
		switch {
		case *s.value < 0:
			return errors.Newf("%s must be >= 0, got %d", s.name, *s.value)
		case *s.value == 0:
			*s.value = s.def
		}
	}
	return nil
}

// ValidateWebhook checks a single webhook and fills its defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return errors.Wrap(err, "invalid url")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnSpills
	case WebhookTriggerOnSpills, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return errors.Newf("invalid trigger %q (must be on_spills, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}
