// Package output renders analysis reports and query results.
package output

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/query"
)

// Formatter renders results in a specific format.
type Formatter interface {
	// FormatReport renders a full analysis report.
	FormatReport(ctx context.Context, report *analyzer.Report, w io.Writer) error

	FormatCount(ctx context.Context, res *query.CountResult, w io.Writer) error
	FormatPage(ctx context.Context, page *query.Page, w io.Writer) error
	FormatSample(ctx context.Context, res *query.SampleResult, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds chart tables to text reports.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// New returns the formatter registered under name.
func New(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, errors.Newf("invalid output format %q (must be text or json)", name)
	}
}
