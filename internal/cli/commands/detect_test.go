package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/detector"
)

func TestOutputDetectText_NotSpillLog(t *testing.T) {
	result := detector.New().DetectFromLines([]string{"hello", "world"})

	var buf bytes.Buffer
	if err := outputDetectText(&buf, result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "does not look like a spill log") {
		t.Errorf("Expected rejection message, got:\n%s", buf.String())
	}
}

func TestOutputDetectText_SpillLog(t *testing.T) {
	result := detector.New().DetectFromLines(strings.Split(strings.TrimSpace(testLog), "\n"))

	var buf bytes.Buffer
	if err := outputDetectText(&buf, result); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Malformed records: 1") {
		t.Errorf("Expected malformed count in output:\n%s", output)
	}
	if !strings.Contains(output, "Example record:") {
		t.Errorf("Expected example record in output:\n%s", output)
	}
}

func TestRunDetect_MissingFile(t *testing.T) {
	_, _, err := executeCommand(t, "detect", "/nonexistent/file.log")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunDetect_Success(t *testing.T) {
	path := writeTestLog(t, testLog)

	stdout, _, err := executeCommand(t, "detect", path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !strings.Contains(stdout, "SPILL lines:       4") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestRunDetect_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riscv_spill_stats.txt.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(testLog)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeCommand(t, "detect", "-o", "json", path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got["compression"] != "gzip" {
		t.Errorf("compression = %v, want gzip", got["compression"])
	}
	if got["architecture"] != "riscv" {
		t.Errorf("architecture = %v, want riscv", got["architecture"])
	}
	if got["valid_records"] != float64(3) {
		t.Errorf("valid_records = %v, want 3", got["valid_records"])
	}
	if got["looks_like_spill_log"] != true {
		t.Errorf("looks_like_spill_log = %v, want true", got["looks_like_spill_log"])
	}
}

func TestRunDetect_WriteConfig(t *testing.T) {
	path := writeTestLog(t, testLog)
	configPath := filepath.Join(t.TempDir(), "spilltrace.yaml")

	stdout, _, err := executeCommand(t, "detect", "-w", configPath, path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !strings.Contains(stdout, "Wrote starter config") {
		t.Errorf("expected write confirmation, got:\n%s", stdout)
	}

	// The generated file must load cleanly
	cfg, err := config.Load(context.Background(), configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	abs, _ := filepath.Abs(path)
	if cfg.LogFile != abs {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, abs)
	}
}

func TestRunDetect_WriteConfigNoOverwrite(t *testing.T) {
	path := writeTestLog(t, testLog)
	configPath := filepath.Join(t.TempDir(), "spilltrace.yaml")
	if err := os.WriteFile(configPath, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := executeCommand(t, "detect", "-w", configPath, path)
	if err == nil || !strings.Contains(err.Error(), "will not overwrite") {
		t.Errorf("expected overwrite refusal, got %v", err)
	}
}

func TestRunDetect_WriteConfigNotSpillLog(t *testing.T) {
	path := writeTestLog(t, "plain text\nmore text\n")
	configPath := filepath.Join(t.TempDir(), "spilltrace.yaml")

	_, _, err := executeCommand(t, "detect", "-w", configPath, path)
	if err == nil {
		t.Error("expected error when the file is not a spill log")
	}
	if _, statErr := os.Stat(configPath); statErr == nil {
		t.Error("config should not have been written")
	}
}
