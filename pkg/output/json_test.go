package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/ccollicutt/spilltrace/pkg/analyzer"
	"github.com/ccollicutt/spilltrace/pkg/query"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatReport(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	var parsed analyzer.Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.SpillCount != 3 {
		t.Errorf("SpillCount = %d, want 3", parsed.SpillCount)
	}
	if parsed.Statistics.MaxSpillDuration != 60 {
		t.Errorf("MaxSpillDuration = %d, want 60", parsed.Statistics.MaxSpillDuration)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"spill_count", "architecture", "spill_file", "sampled", "statistics", "charts", "performance"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("report JSON missing key %q", key)
		}
	}
	if _, ok := raw["sample_size"]; ok {
		t.Error("sample_size should be omitted for unsampled reports")
	}
}

func TestJSONFormatter_FormatReport_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.FormatReport(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	var parsed analyzer.Statistics
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.TotalSpills != 3 {
		t.Errorf("TotalSpills = %d, want 3", parsed.TotalSpills)
	}
}

func TestJSONFormatter_FormatPage(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatPage(context.Background(), createTestPage(), &buf); err != nil {
		t.Fatalf("FormatPage() error = %v", err)
	}

	var raw struct {
		Items []struct {
			ID      int    `json:"id"`
			StorePC string `json:"store_pc"`
		} `json:"items"`
		NextOffset *int `json:"next_offset"`
	}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(raw.Items) != 2 || raw.Items[0].ID != 4 {
		t.Errorf("Items = %+v", raw.Items)
	}
	if raw.NextOffset == nil || *raw.NextOffset != 2 {
		t.Errorf("NextOffset = %v, want 2", raw.NextOffset)
	}
}

func TestJSONFormatter_FormatPage_Exhausted(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatPage(context.Background(), &query.Page{Items: nil}, &buf); err != nil {
		t.Fatalf("FormatPage() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if v, ok := raw["next_offset"]; !ok || v != nil {
		t.Errorf("next_offset = %v, want explicit null", v)
	}
}

func TestJSONFormatter_FormatCount(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.FormatCount(context.Background(), &query.CountResult{Count: 7, ScannedLines: 9}, &buf); err != nil {
		t.Fatalf("FormatCount() error = %v", err)
	}

	var parsed query.CountResult
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Count != 7 || parsed.ScannedLines != 9 {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestJSONFormatter_FormatSample(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	res := &query.SampleResult{Items: createTestPage().Items, ScannedLines: 50}
	if err := f.FormatSample(context.Background(), res, &buf); err != nil {
		t.Fatalf("FormatSample() error = %v", err)
	}

	var parsed query.SampleResult
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(parsed.Items) != 2 {
		t.Errorf("Items = %d, want 2", len(parsed.Items))
	}
}
