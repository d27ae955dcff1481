package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRoot(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("SPILLTRACE_LOG_FILE", "")
	t.Setenv("SPILLTRACE_LOG_DIR", "")

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(context.Background(), root, args)
	return code, stdout.String(), stderr.String()
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	want := []string{"analyze", "count", "search", "sample", "range", "detect", "validate", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Missing command: %s", name)
		}
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	withSpills := filepath.Join(dir, "x86_spill_stats.txt")
	if err := os.WriteFile(withSpills, []byte("SPILL,0x10,0x20,0x7f00,1,5,4,1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"analyze with spills", []string{"analyze", "-f", withSpills}, 0},
		{"analyze without spills", []string{"analyze", "-f", empty}, 1},
		{"count without spills", []string{"count", "-f", empty}, 0},
		{"bad output format", []string{"analyze", "-f", withSpills, "-o", "xml"}, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"missing config", []string{"analyze", "-c", "/nonexistent/spilltrace.yaml"}, 2},
		{"version", []string{"version"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runRoot(t, tt.args...)
			if code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestExitCodeResetBetweenRuns(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if code, _, _ := runRoot(t, "analyze", "-f", empty); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if code, _, _ := runRoot(t, "version"); code != 0 {
		t.Errorf("exit code after a no-spill run = %d, want 0", code)
	}
}

func TestErrorPrintedToStderr(t *testing.T) {
	code, _, stderr := runRoot(t, "count", "--field", "nope", "-f", "/tmp/x")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.HasPrefix(stderr, "Error: ") {
		t.Errorf("expected error on stderr, got %q", stderr)
	}
}
