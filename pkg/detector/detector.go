// Package detector inspects the head of a file and reports whether it
// looks like a spill log.
package detector

import (
	"bufio"
	"context"
	"strings"

	"github.com/ccollicutt/spilltrace/pkg/spill"
)

// DefaultSampleSize is the number of content lines inspected by default.
const DefaultSampleSize = 100

// Result holds the outcome of inspecting a log file.
type Result struct {
	Path         string            `json:"path"`
	Architecture string            `json:"architecture"`
	Compression  spill.Compression `json:"compression"`

	// SampledLines counts non-blank, non-comment lines examined.
	SampledLines int `json:"sampled_lines"`

	// SpillLines counts lines carrying the SPILL, prefix.
	SpillLines int `json:"spill_lines"`

	ValidRecords     int `json:"valid_records"`
	MalformedRecords int `json:"malformed_records"`

	// FirstMalformedLine is the physical line of the first bad record, 0 if none.
	FirstMalformedLine int `json:"first_malformed_line,omitempty"`

	// Example is the first well-formed record seen.
	Example *spill.Event `json:"example,omitempty"`
}

// SpillRatio is the share of sampled lines that are SPILL records.
func (r *Result) SpillRatio() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.SpillLines) / float64(r.SampledLines)
}

// LooksLikeSpillLog reports whether the sample held well-formed records
// and they outnumber malformed ones.
func (r *Result) LooksLikeSpillLog() bool {
	return r.ValidRecords > 0 && r.ValidRecords >= r.MalformedRecords
}

// Detector samples log files.
type Detector struct {
	sampleSize  int
	maxLineSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMaxLineSize bounds a single line, as for the spill scanner.
func WithMaxLineSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxLineSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize:  DefaultSampleSize,
		maxLineSize: spill.DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile inspects the head of path, decompressing it when needed.
// Unlike queries, a missing file is an error here.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*Result, error) {
	r, err := spill.OpenDecoded(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := &Result{
		Path:         path,
		Architecture: spill.ArchitectureOf(path),
		Compression:  spill.CompressionOf(path),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, d.maxLineSize)), d.maxLineSize)

	lineNum := 0
	for res.SampledLines < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++
		d.inspect(res, scanner.Text(), lineNum)
	}
	if err := scanner.Err(); err != nil {
		return nil, &spill.ScanError{Kind: spill.KindIO, Path: path, Line: lineNum, Err: err}
	}
	return res, nil
}

// DetectFromLines inspects in-memory lines. Line numbers start at 1.
func (d *Detector) DetectFromLines(lines []string) *Result {
	res := &Result{Architecture: spill.ArchUnknown, Compression: spill.CompressionNone}
	for i, line := range lines {
		if res.SampledLines >= d.sampleSize {
			break
		}
		d.inspect(res, line, i+1)
	}
	return res
}

func (d *Detector) inspect(res *Result, line string, lineNum int) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}
	res.SampledLines++

	if !spill.IsCandidate(line) {
		return
	}
	res.SpillLines++

	ev, ok := spill.ParseLine(line, lineNum)
	if !ok {
		res.MalformedRecords++
		if res.FirstMalformedLine == 0 {
			res.FirstMalformedLine = lineNum
		}
		return
	}
	res.ValidRecords++
	if res.Example == nil {
		res.Example = &ev
	}
}
