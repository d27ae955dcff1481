package detector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/ccollicutt/spilltrace/pkg/spill"
)

const goodLog = `# gem5 spill trace
SPILL,0x401000,0x401040,0x7ffc0010,100,150,50,10,12
SPILL,0x401000,0x401044,0x7ffc0018,200,260,60,20,22

SPILL,0x401008,0x401040,0x7ffc0010,300,330,30,30,31
`

func TestDetector_DetectFromLines_SpillLog(t *testing.T) {
	d := New()
	result := d.DetectFromLines(strings.Split(goodLog, "\n"))

	if result.SampledLines != 3 {
		t.Errorf("SampledLines = %d, want 3", result.SampledLines)
	}
	if result.ValidRecords != 3 {
		t.Errorf("ValidRecords = %d, want 3", result.ValidRecords)
	}
	if result.SpillRatio() != 1.0 {
		t.Errorf("SpillRatio() = %.2f, want 1.0", result.SpillRatio())
	}
	if !result.LooksLikeSpillLog() {
		t.Error("LooksLikeSpillLog() = false, want true")
	}
	if result.Example == nil || result.Example.LineNumber != 2 {
		t.Errorf("Example = %+v, want record from line 2", result.Example)
	}
}

func TestDetector_DetectFromLines_NotASpillLog(t *testing.T) {
	lines := []string{
		"2024-01-15T10:30:00 Application started",
		"2024-01-15T10:30:05 Processing request",
	}

	result := New().DetectFromLines(lines)
	if result.LooksLikeSpillLog() {
		t.Error("LooksLikeSpillLog() = true for application log")
	}
	if result.SpillRatio() != 0 {
		t.Errorf("SpillRatio() = %.2f, want 0", result.SpillRatio())
	}
}

func TestDetector_DetectFromLines_Malformed(t *testing.T) {
	lines := []string{
		"header",
		"SPILL,0x1,0x2,0x3,1,2,1,1,1",
		"SPILL,0x1,short",
		"SPILL,0x1,0x2,0x3,one,2,1,1,1",
		"SPILL,0x1,0x2,0x3,1,2,1,1,1",
	}

	result := New().DetectFromLines(lines)
	if result.MalformedRecords != 2 {
		t.Errorf("MalformedRecords = %d, want 2", result.MalformedRecords)
	}
	if result.FirstMalformedLine != 3 {
		t.Errorf("FirstMalformedLine = %d, want 3", result.FirstMalformedLine)
	}
	if result.SpillLines != 4 {
		t.Errorf("SpillLines = %d, want 4", result.SpillLines)
	}
	if !result.LooksLikeSpillLog() {
		t.Error("equal valid and malformed counts should still look like a spill log")
	}
}

func TestDetector_SampleSize(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "SPILL,0x1,0x2,0x3,1,2,1,1,1")
	}

	result := New(WithSampleSize(10)).DetectFromLines(lines)
	if result.SampledLines != 10 {
		t.Errorf("SampledLines = %d, want 10", result.SampledLines)
	}

	result = New(WithSampleSize(-1)).DetectFromLines(lines)
	if result.SampledLines != 50 {
		t.Errorf("SampledLines = %d, want all 50 lines with default size", result.SampledLines)
	}
}

func TestDetector_DetectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riscv_spill_stats.txt")
	if err := os.WriteFile(path, []byte(goodLog), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := New().DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}
	if result.Architecture != spill.ArchRISCV {
		t.Errorf("Architecture = %q, want riscv", result.Architecture)
	}
	if result.Compression != spill.CompressionNone {
		t.Errorf("Compression = %q, want none", result.Compression)
	}
	if result.ValidRecords != 3 {
		t.Errorf("ValidRecords = %d, want 3", result.ValidRecords)
	}
	if result.Example == nil || result.Example.LineNumber != 2 {
		t.Errorf("Example = %+v, want physical line 2", result.Example)
	}
}

func TestDetector_DetectFromFile_Zstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm_spill_stats.txt.zst")
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	packed := enc.EncodeAll([]byte(goodLog), nil)
	_ = enc.Close()
	if err := os.WriteFile(path, packed, 0644); err != nil {
		t.Fatal(err)
	}

	result, err := New().DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}
	if result.Compression != spill.CompressionZstd {
		t.Errorf("Compression = %q, want zstd", result.Compression)
	}
	if result.Architecture != spill.ArchARM {
		t.Errorf("Architecture = %q, want arm", result.Architecture)
	}
	if result.ValidRecords != 3 {
		t.Errorf("ValidRecords = %d, want 3", result.ValidRecords)
	}
}

func TestDetector_DetectFromFile_NotFound(t *testing.T) {
	_, err := New().DetectFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if !spill.IsNotFound(err) {
		t.Errorf("DetectFromFile() error = %v, want not-found", err)
	}
}

func TestDetector_DetectFromFile_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spill_log.txt")
	if err := os.WriteFile(path, []byte(goodLog), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().DetectFromFile(ctx, path); err == nil {
		t.Error("DetectFromFile() expected error for cancelled context")
	}
}
