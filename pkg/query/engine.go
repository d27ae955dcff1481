package query

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ccollicutt/spilltrace/pkg/spill"
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

// Engine runs queries against one spill log. It holds configuration only,
// so a single Engine can serve concurrent queries; each call opens its own
// file handle.
type Engine struct {
	path     string
	logger   log.Logger
	scanOpts []spill.Option
	seed     uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used to report aborted scans.
func WithLogger(l log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScanOptions passes options through to every scanner the engine opens.
func WithScanOptions(opts ...spill.Option) EngineOption {
	return func(e *Engine) {
		e.scanOpts = append(e.scanOpts, opts...)
	}
}

// WithSeed fixes the random seed used by Sample. Zero means random.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.seed = seed
	}
}

// NewEngine creates an engine for the log at path.
func NewEngine(path string, opts ...EngineOption) *Engine {
	e := &Engine{
		path:   path,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the log file the engine reads.
func (e *Engine) Path() string {
	return e.path
}

// Count counts records matching the predicate.
func (e *Engine) Count(ctx context.Context, req CountRequest) (*CountResult, error) {
	start := time.Now()
	res := &CountResult{}

	scanned, err := e.scan(ctx, func(r *spill.Record) bool {
		if req.Predicate.Match(r) && r.Valid() {
			res.Count++
		}
		res.ScannedLines++
		if req.MaxScanLines > 0 && res.ScannedLines >= req.MaxScanLines {
			res.Partial = true
			return false
		}
		return true
	})
	if err != nil {
		if ctxErr := e.recover("count", err); ctxErr != nil {
			return nil, ctxErr
		}
		return &CountResult{TookMS: took(start)}, nil
	}

	res.ScannedLines = scanned
	res.TookMS = took(start)
	return res, nil
}

// Search returns one page of records matching the predicate.
// Pagination re-scans from the start of the file, skipping Offset matches.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*Page, error) {
	offset, limit := normalizePage(req.Offset, req.Limit)
	return e.page(ctx, "search", offset, limit, func(r *spill.Record) (spill.Event, bool) {
		if !req.Predicate.Match(r) {
			return spill.Event{}, false
		}
		return r.Event()
	})
}

// Range returns one page of records whose store instruction count lies
// within the requested bounds.
func (e *Engine) Range(ctx context.Context, req RangeRequest) (*Page, error) {
	offset, limit := normalizePage(req.Offset, req.Limit)
	return e.page(ctx, "range", offset, limit, func(r *spill.Record) (spill.Event, bool) {
		ev, ok := r.Event()
		if !ok || !req.contains(ev.StoreInstCount) {
			return spill.Event{}, false
		}
		return ev, true
	})
}

// Sample draws up to N records uniformly from the whole log.
func (e *Engine) Sample(ctx context.Context, req SampleRequest) (*SampleResult, error) {
	start := time.Now()

	seed := req.Seed
	if seed == 0 {
		seed = e.seed
	}
	res := stats.NewReservoir[spill.Event](max(req.N, 0), stats.NewRand(seed))

	_, err := e.scan(ctx, func(r *spill.Record) bool {
		if !req.Predicate.Match(r) {
			return true
		}
		if ev, ok := r.Event(); ok {
			res.Add(ev)
		}
		return true
	})
	if err != nil {
		if ctxErr := e.recover("sample", err); ctxErr != nil {
			return nil, ctxErr
		}
		return &SampleResult{Items: []spill.Event{}, TookMS: took(start)}, nil
	}

	return &SampleResult{
		Items:        res.Items(),
		ScannedLines: int(res.Seen()),
		TookMS:       took(start),
	}, nil
}

// page implements the shared offset/limit contract of Search and Range.
func (e *Engine) page(ctx context.Context, op string, offset, limit int, match func(*spill.Record) (spill.Event, bool)) (*Page, error) {
	start := time.Now()
	items := make([]spill.Event, 0, min(limit, 1024))
	skipped := 0
	filled := false

	scanned, err := e.scan(ctx, func(r *spill.Record) bool {
		ev, ok := match(r)
		if !ok {
			return true
		}
		if skipped < offset {
			skipped++
			return true
		}
		items = append(items, ev)
		if len(items) >= limit {
			filled = true
			return false
		}
		return true
	})
	if err != nil {
		if ctxErr := e.recover(op, err); ctxErr != nil {
			return nil, ctxErr
		}
		return &Page{Items: []spill.Event{}, TookMS: took(start)}, nil
	}

	p := &Page{
		Items:        items,
		ScannedLines: scanned,
		TookMS:       took(start),
	}
	if filled {
		next := offset + len(items)
		p.NextOffset = &next
	}
	return p, nil
}

// scan feeds every SPILL record to fn until fn returns false or the log is
// exhausted. It returns the number of records handed to fn. A missing log
// is an empty log.
func (e *Engine) scan(ctx context.Context, fn func(*spill.Record) bool) (int, error) {
	src, err := spill.OpenSource(e.path, e.scanOpts...)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	n := 0
	for {
		r, err := src.Next(ctx)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		if !fn(r) {
			return n, nil
		}
	}
}

// recover maps scan failures to the empty default result. Only context
// cancellation is handed back to the caller.
func (e *Engine) recover(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	level.Warn(e.logger).Log("msg", "scan aborted", "op", op, "path", e.path, "kind", spill.KindOf(err), "err", err)
	return nil
}

func took(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
