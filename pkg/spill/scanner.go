package spill

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// DefaultMaxLineSize bounds the length of a single log line.
const DefaultMaxLineSize = 1024 * 1024

var prefixBytes = []byte(Prefix)

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxLineSize sets the longest line the scanner accepts. Longer lines
// abort the scan with a KindIO error.
func WithMaxLineSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLineSize = n
		}
	}
}

// Scanner implements Source over a single spill log file.
type Scanner struct {
	path        string
	maxLineSize int

	reader  io.ReadCloser
	scanner *bufio.Scanner
	line    int
	done    bool
}

// Open opens the log at path for one sequential pass. Compressed logs are
// decoded according to their extension. A missing file returns a
// KindNotFound *ScanError.
func Open(path string, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		path:        path,
		maxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r, err := OpenDecoded(path)
	if err != nil {
		return nil, err
	}

	s.reader = r
	s.scanner = bufio.NewScanner(r)
	// bufio.Scanner takes the larger of max and cap(buf) as its limit.
	initial := min(64*1024, s.maxLineSize)
	s.scanner.Buffer(make([]byte, 0, initial), s.maxLineSize)

	return s, nil
}

// Path returns the file being scanned.
func (s *Scanner) Path() string {
	return s.path
}

// Line returns the number of physical lines read so far.
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next SPILL-prefixed record.
// Non-candidate lines are skipped but still advance the line counter.
func (s *Scanner) Next(ctx context.Context) (*Record, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			s.done = true
			if err := s.scanner.Err(); err != nil {
				return nil, &ScanError{Kind: KindIO, Path: s.path, Line: s.line, Err: err}
			}
			return nil, io.EOF
		}
		s.line++

		b := s.scanner.Bytes()
		if !bytes.HasPrefix(b, prefixBytes) {
			continue
		}

		return &Record{
			LineNumber: s.line,
			Fields:     SplitLine(string(b)),
		}, nil
	}
}

// Close releases the decoder and the underlying file.
func (s *Scanner) Close() error {
	s.done = true
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

// emptySource is a Source with no records.
type emptySource struct{}

// Empty returns a Source that is immediately exhausted. Query code uses it
// in place of a missing log file.
func Empty() Source {
	return emptySource{}
}

func (emptySource) Next(context.Context) (*Record, error) { return nil, io.EOF }

func (emptySource) Close() error { return nil }

// OpenSource opens path as a Source, substituting an empty Source when the
// file does not exist. Other failures are returned.
func OpenSource(path string, opts ...Option) (Source, error) {
	s, err := Open(path, opts...)
	if err != nil {
		if IsNotFound(err) {
			return Empty(), nil
		}
		return nil, err
	}
	return s, nil
}
