package commands

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/output"
	"github.com/ccollicutt/spilltrace/pkg/spill"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	LogFile    string
	LogDir     string
	LogLevel   string
	Output     string
	Quiet      bool
}

// Bind registers the persistent flags on the root command.
func (g *GlobalOptions) Bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&g.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	f.StringVarP(&g.LogFile, "file", "f", "", "Spill log to read (overrides config and discovery)")
	f.StringVarP(&g.LogDir, "dir", "d", "", "Directory searched for a spill log")
	f.StringVar(&g.LogLevel, "log-level", "warn", "Diagnostic log level (debug|info|warn|error)")
	f.StringVarP(&g.Output, "output", "o", "text", "Output format (text|json)")
	f.BoolVarP(&g.Quiet, "quiet", "q", false, "Summary only, no details")
}

// Logger builds a logfmt logger on w filtered at the configured level.
func (g *GlobalOptions) Logger(w io.Writer) (log.Logger, error) {
	var opt level.Option
	switch strings.ToLower(g.LogLevel) {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "", "warn", "warning":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, errors.Newf("invalid log level %q (must be debug, info, warn, or error)", g.LogLevel)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, opt), nil
}

// LoadConfig loads the config file when one was given, otherwise the
// defaults plus environment overrides. --file and --dir win over both.
func (g *GlobalOptions) LoadConfig(ctx context.Context) (*config.Config, error) {
	var cfg *config.Config
	if g.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(ctx, g.ConfigFile); err != nil {
			return nil, errors.Wrap(err, "loading config")
		}
	} else {
		cfg = config.FromEnvironment()
	}

	if g.LogFile != "" {
		cfg.LogFile = g.LogFile
	}
	if g.LogDir != "" {
		cfg.LogDir = g.LogDir
		if g.LogFile == "" {
			cfg.LogFile = ""
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

// ResolveLogFile picks the spill log for cfg. When discovery finds nothing
// the first candidate path is returned, which reads as an empty log.
func (g *GlobalOptions) ResolveLogFile(cfg *config.Config, logger log.Logger) string {
	path, err := cfg.ResolveLogFile()
	if err == nil {
		level.Debug(logger).Log("msg", "using spill log", "path", path)
		return path
	}

	fallback := spill.DefaultCandidates[0]
	if len(cfg.Candidates) > 0 {
		fallback = cfg.Candidates[0]
	}
	path = filepath.Join(cfg.LogDir, fallback)
	level.Warn(logger).Log("msg", "no spill log found", "dir", cfg.LogDir, "err", err)
	return path
}

// Formatter returns the formatter selected by --output.
func (g *GlobalOptions) Formatter(verbose bool) (output.Formatter, error) {
	return output.New(g.Output, output.FormatOptions{Verbose: verbose, Quiet: g.Quiet})
}

// env bundles what a command needs after flag parsing.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	logger log.Logger
	path   string
	out    io.Writer
}

func (g *GlobalOptions) setup(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := g.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	cfg, err := g.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &env{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		path:   g.ResolveLogFile(cfg, logger),
		out:    cmd.OutOrStdout(),
	}, nil
}
