package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/query"
	"github.com/ccollicutt/spilltrace/pkg/spill"
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

// TextFormatter formats results as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// FormatReport renders the report as text.
func (f *TextFormatter) FormatReport(_ context.Context, report *analyzer.Report, w io.Writer) error {
	if f.opts.Quiet {
		fmt.Fprintf(w, "spilltrace: %d spills, %d unique addresses, avg duration %.2f ticks\n",
			report.SpillCount,
			report.Statistics.UniqueMemoryAddresses,
			report.Statistics.AvgSpillDuration)
		return nil
	}

	fmt.Fprintln(w, "=== Spill Analysis Report ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File:         %s\n", report.SpillFile)
	if report.FileSize != "" {
		fmt.Fprintf(w, "Size:         %s\n", report.FileSize)
	}
	fmt.Fprintf(w, "Architecture: %s\n", report.Architecture)
	fmt.Fprintf(w, "Spills:       %d\n", report.SpillCount)
	if report.Sampled {
		fmt.Fprintf(w, "Sampled:      yes (%d events in charts)\n", report.SampleSize)
	}
	fmt.Fprintln(w)

	if !report.HasSpills() {
		fmt.Fprintln(w, "No spills found")
		return nil
	}

	st := report.Statistics
	fmt.Fprintln(w, "[STATISTICS]")
	fmt.Fprintf(w, "  Total spills:            %d\n", st.TotalSpills)
	fmt.Fprintf(w, "  Duration avg/min/max:    %.2f / %d / %d\n", st.AvgSpillDuration, st.MinSpillDuration, st.MaxSpillDuration)
	fmt.Fprintf(w, "  Duration p50/p99:        %d / %d\n", st.DurationPercentiles.P50, st.DurationPercentiles.P99)
	fmt.Fprintf(w, "  Unique memory addresses: %d\n", st.UniqueMemoryAddresses)
	fmt.Fprintf(w, "  Unique store PCs:        %d\n", st.UniqueStorePCs)
	fmt.Fprintf(w, "  Unique load PCs:         %d\n", st.UniqueLoadPCs)
	fmt.Fprintf(w, "  Inst delta mean/med/std: %.2f / %d / %.2f\n", st.InstDiffStats.Mean, st.InstDiffStats.Median, st.InstDiffStats.StdDev)
	if ar := st.AddressRange; ar != nil {
		fmt.Fprintf(w, "  Address range:           %s - %s (%d bytes)\n", ar.Min, ar.Max, ar.Size)
	}
	fmt.Fprintln(w)

	f.formatFrequencies(w, "TOP STORE PCS", report.Charts.TopStorePCs)
	f.formatFrequencies(w, "TOP LOAD PCS", report.Charts.TopLoadPCs)
	f.formatFrequencies(w, "TOP ADDRESSES", st.TopAddresses)
	if len(report.Charts.HotStorePCs) > 0 {
		f.formatFrequencies(w, "HOT STORE PCS (exact)", report.Charts.HotStorePCs)
	}

	if f.opts.Verbose {
		f.formatHistogram(w, report.Charts.DurationHistogram)
		f.formatPairs(w, report.Charts.PCPairs)
		f.formatFrequencies(w, "ADDRESS HEATMAP", report.Charts.AddressHeatmap)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Processed in %.3fs (%.0f spills/s)\n",
		report.Performance.ProcessingTimeSeconds,
		report.Performance.SpillsPerSecond)
	return nil
}

func (f *TextFormatter) formatFrequencies(w io.Writer, title string, rows []stats.Frequency) {
	fmt.Fprintf(w, "[%s]\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-20s %d\n", r.Value, r.Count)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatPairs(w io.Writer, pairs []analyzer.PCPair) {
	fmt.Fprintln(w, "[PC PAIRS]")
	for _, p := range pairs {
		fmt.Fprintf(w, "  %s -> %-12s %d\n", p.StorePC, p.LoadPC, p.Count)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatHistogram(w io.Writer, buckets []stats.Bucket) {
	fmt.Fprintln(w, "[DURATION HISTOGRAM]")
	for _, b := range buckets {
		bar := strings.Repeat("#", int(b.Percentage/2))
		fmt.Fprintf(w, "  %10.0f - %-10.0f %6d %s\n", b.RangeStart, b.RangeEnd, b.Count, bar)
	}
	fmt.Fprintln(w)
}

// FormatCount renders a count result as text.
func (f *TextFormatter) FormatCount(_ context.Context, res *query.CountResult, w io.Writer) error {
	fmt.Fprintf(w, "%d\n", res.Count)
	if !f.opts.Quiet {
		partial := ""
		if res.Partial {
			partial = ", partial"
		}
		fmt.Fprintf(w, "(%d records scanned in %dms%s)\n", res.ScannedLines, res.TookMS, partial)
	}
	return nil
}

// FormatPage renders a search or range page as text.
func (f *TextFormatter) FormatPage(_ context.Context, page *query.Page, w io.Writer) error {
	f.formatEvents(w, page.Items)
	if f.opts.Quiet {
		return nil
	}
	next := "end"
	if page.NextOffset != nil {
		next = fmt.Sprintf("next offset %d", *page.NextOffset)
	}
	fmt.Fprintf(w, "(%d items, %d records scanned in %dms, %s)\n", len(page.Items), page.ScannedLines, page.TookMS, next)
	return nil
}

// FormatSample renders a sample result as text.
func (f *TextFormatter) FormatSample(_ context.Context, res *query.SampleResult, w io.Writer) error {
	f.formatEvents(w, res.Items)
	if !f.opts.Quiet {
		fmt.Fprintf(w, "(%d of %d records in %dms)\n", len(res.Items), res.ScannedLines, res.TookMS)
	}
	return nil
}

func (f *TextFormatter) formatEvents(w io.Writer, events []spill.Event) {
	if !f.opts.Quiet {
		fmt.Fprintf(w, "%-8s %-12s %-12s %-16s %10s %10s %10s\n",
			"ID", "STORE_PC", "LOAD_PC", "ADDRESS", "TICK_DIFF", "STORE_INST", "LOAD_INST")
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%-8d %-12s %-12s %-16s %10d %10d %10d\n",
			ev.LineNumber, ev.StorePC, ev.LoadPC, ev.MemoryAddress,
			ev.TickDiff, ev.StoreInstCount, ev.LoadInstCount)
	}
}
