package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/query"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatReport renders the report as JSON. Quiet mode emits only the
// statistics block.
func (f *JSONFormatter) FormatReport(_ context.Context, report *analyzer.Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.encode(w, report.Statistics)
	}
	return f.encode(w, report)
}

// FormatCount renders a count result as JSON.
func (f *JSONFormatter) FormatCount(_ context.Context, res *query.CountResult, w io.Writer) error {
	return f.encode(w, res)
}

// FormatPage renders a search or range page as JSON.
func (f *JSONFormatter) FormatPage(_ context.Context, page *query.Page, w io.Writer) error {
	return f.encode(w, page)
}

// FormatSample renders a sample result as JSON.
func (f *JSONFormatter) FormatSample(_ context.Context, res *query.SampleResult, w io.Writer) error {
	return f.encode(w, res)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
