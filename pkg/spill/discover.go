package spill

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultCandidates lists spill log file names in lookup order.
var DefaultCandidates = []string{
	"x86_spill_stats.txt",
	"arm_spill_stats.txt",
	"riscv_spill_stats.txt",
	"spill_stats.txt",
	"spill_log.txt",
}

// Discover returns the first candidate that exists in dir, then in the
// parent of dir. A nil or empty candidates list uses DefaultCandidates.
func Discover(dir string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	dirs := []string{dir}
	if parent := filepath.Dir(filepath.Clean(dir)); parent != filepath.Clean(dir) {
		dirs = append(dirs, parent)
	}

	for _, d := range dirs {
		for _, name := range candidates {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	return "", &ScanError{Kind: KindNotFound, Path: dir, Err: ErrNotFound}
}

// Architecture tags inferred from log file names.
const (
	ArchX86     = "x86"
	ArchARM     = "arm"
	ArchRISCV   = "riscv"
	ArchUnknown = "unknown"
)

// ArchitectureOf infers the simulated ISA from the log file name.
// The tag is informational only.
func ArchitectureOf(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "x86"):
		return ArchX86
	case strings.Contains(name, "riscv"):
		return ArchRISCV
	case strings.Contains(name, "arm"):
		return ArchARM
	default:
		return ArchUnknown
	}
}
