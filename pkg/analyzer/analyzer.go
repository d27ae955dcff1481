package analyzer

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/spill"
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

// Strategy names the way a report was computed.
type Strategy string

const (
	// StrategySmall keeps every parsed event in memory.
	StrategySmall Strategy = "small"
	// StrategyLarge streams into exact aggregates plus a reservoir sample.
	StrategyLarge Strategy = "large"
)

// Analyzer produces full analysis reports.
type Analyzer struct {
	settings config.AnalysisConfig
	scanOpts []spill.Option
	logger   log.Logger
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger for progress and scan failures.
func WithLogger(l log.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSeed overrides the configured sampling seed. Zero means random.
func WithSeed(seed uint64) AnalyzerOption {
	return func(a *Analyzer) {
		a.settings.Seed = seed
	}
}

// NewAnalyzer creates an analyzer from configuration. A nil config uses
// the defaults.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := &Analyzer{
		settings: cfg.Analysis,
		scanOpts: cfg.ScanOptions(),
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the report for the spill log at path. A missing or
// unreadable log yields an empty report; only context cancellation is
// returned as an error.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	rep := &Report{
		RunID:        uuid.NewString(),
		SpillFile:    path,
		Architecture: spill.ArchitectureOf(path),
		Charts:       emptyCharts(),
	}

	total, fingerprint, err := a.size(ctx, path)
	if err != nil {
		return a.recover(ctx, rep, start, err)
	}
	rep.SpillCount = total
	if info, err := os.Stat(path); err == nil {
		rep.FileSize = datasize.ByteSize(info.Size()).HR()
	}
	if total > 0 {
		rep.Fingerprint = fmt.Sprintf("%016x", fingerprint)
	}

	strategy := StrategySmall
	if total > a.settings.LargeThreshold {
		strategy = StrategyLarge
	}
	level.Debug(a.logger).Log("msg", "sizing pass complete", "path", path, "records", total, "strategy", strategy)

	if total > 0 {
		rng := stats.NewRand(a.settings.Seed)
		switch strategy {
		case StrategyLarge:
			err = a.analyzeLarge(ctx, path, rep, rng)
		default:
			err = a.analyzeSmall(ctx, path, rep, rng)
		}
		if err != nil {
			return a.recover(ctx, rep, start, err)
		}
	}

	rep.Performance = performance(rep.SpillCount, time.Since(start))
	level.Info(a.logger).Log(
		"msg", "analysis complete",
		"path", path,
		"spills", rep.SpillCount,
		"strategy", strategy,
		"seconds", rep.Performance.ProcessingTimeSeconds,
	)
	return rep, nil
}

// size counts SPILL records without parsing them and hashes their text.
func (a *Analyzer) size(ctx context.Context, path string) (int, uint64, error) {
	src, err := spill.OpenSource(path, a.scanOpts...)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	h := xxhash.New()
	n := 0
	for {
		r, err := src.Next(ctx)
		if err == io.EOF {
			return n, h.Sum64(), nil
		}
		if err != nil {
			return 0, 0, err
		}
		n++
		_, _ = h.WriteString(strings.Join(r.Fields, ","))
		_, _ = h.WriteString("\n")
	}
}

// analyzeSmall retains up to MaxEvents parsed events and derives
// everything from them.
func (a *Analyzer) analyzeSmall(ctx context.Context, path string, rep *Report, rng *rand.Rand) error {
	events := make([]spill.Event, 0, min(rep.SpillCount, a.settings.MaxEvents))
	err := a.each(ctx, path, func(ev spill.Event) bool {
		events = append(events, ev)
		return len(events) < a.settings.MaxEvents
	})
	if err != nil {
		return err
	}

	rep.Statistics = statistics(stats.Aggregate(events), a.settings.TopN)
	rep.Charts = buildCharts(events, a.settings, rng)
	return nil
}

// analyzeLarge feeds every event to the exact aggregator and a bounded
// reservoir. Charts only ever see the reservoir.
func (a *Analyzer) analyzeLarge(ctx context.Context, path string, rep *Report, rng *rand.Rand) error {
	agg := stats.NewAggregator()
	res := stats.NewReservoir[spill.Event](a.settings.ReservoirSize, rng)
	err := a.each(ctx, path, func(ev spill.Event) bool {
		agg.Add(ev)
		res.Add(ev)
		return true
	})
	if err != nil {
		return err
	}

	sample := res.Items()
	rep.Sampled = true
	rep.SampleSize = len(sample)
	rep.Statistics = statistics(agg, a.settings.TopN)
	rep.Charts = buildCharts(sample, a.settings, rng)
	rep.Charts.HotStorePCs = agg.StorePCs().Top(a.settings.TopN)
	return nil
}

// each parses every well-formed record and hands it to fn until fn
// returns false.
func (a *Analyzer) each(ctx context.Context, path string, fn func(spill.Event) bool) error {
	src, err := spill.OpenSource(path, a.scanOpts...)
	if err != nil {
		return err
	}
	defer src.Close()

	for {
		r, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		ev, ok := r.Event()
		if !ok {
			continue
		}
		if !fn(ev) {
			return nil
		}
	}
}

// recover turns a failed scan into the empty report. Context errors are
// passed through.
func (a *Analyzer) recover(ctx context.Context, rep *Report, start time.Time, err error) (*Report, error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	level.Warn(a.logger).Log("msg", "analysis aborted", "path", rep.SpillFile, "kind", spill.KindOf(err), "err", err)

	empty := &Report{
		RunID:        rep.RunID,
		SpillFile:    rep.SpillFile,
		Architecture: rep.Architecture,
		Charts:       emptyCharts(),
	}
	empty.Performance = performance(0, time.Since(start))
	return empty, nil
}

func statistics(agg *stats.Aggregator, topN int) Statistics {
	s := agg.Summary()
	return Statistics{
		TotalSpills:           int(s.Count),
		AvgSpillDuration:      s.DurationMean,
		UniqueMemoryAddresses: s.UniqueAddresses,
		UniqueStorePCs:        s.UniqueStorePCs,
		UniqueLoadPCs:         s.UniqueLoadPCs,
		MaxSpillDuration:      s.DurationMax,
		MinSpillDuration:      s.DurationMin,
		DurationPercentiles:   s.Percentiles,
		InstDiffStats:         s.InstDelta,
		AddressRange:          s.AddressRange,
		TopAddresses:          agg.Addresses().Top(topN),
	}
}

func performance(spills int, elapsed time.Duration) Performance {
	p := Performance{ProcessingTimeSeconds: elapsed.Seconds()}
	if p.ProcessingTimeSeconds > 0 {
		p.SpillsPerSecond = float64(spills) / p.ProcessingTimeSeconds
	}
	return p
}
