package spill

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies scan failures.
type Kind int

const (
	// KindIO is a read or decode failure while the log was open.
	KindIO Kind = iota + 1
	// KindNotFound means the log file does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrNotFound is the sentinel matched by errors.Is for missing log files.
var ErrNotFound = errors.New("spill log not found")

// ScanError describes why a scan could not start or was aborted.
type ScanError struct {
	Kind Kind
	Path string
	// Line is the last physical line read before the failure, 0 if none.
	Line int
	Err  error
}

func (e *ScanError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("scanning %s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("scanning %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match not-found scan errors.
func (e *ScanError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// KindOf returns the Kind of a scan error, or 0 when err is not one.
func KindOf(err error) Kind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsNotFound reports whether err means the log file is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
