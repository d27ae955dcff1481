package spill

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a log file is encoded on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// CompressionOf infers the encoding of a log from its file extension.
func CompressionOf(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// decompress wraps r in the decoder matching the file extension. Closing the
// returned reader does not close r.
func decompress(r io.Reader, path string) (io.ReadCloser, error) {
	switch CompressionOf(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip stream")
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "opening zstd stream")
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// decodedFile closes the decoder before the file beneath it.
type decodedFile struct {
	io.ReadCloser
	file *os.File
}

func (d *decodedFile) Close() error {
	err := d.ReadCloser.Close()
	if cerr := d.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// OpenDecoded opens path and returns its decompressed byte stream. Unlike
// Open it yields every line, not just SPILL records.
func OpenDecoded(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ScanError{Kind: KindNotFound, Path: path, Err: ErrNotFound}
		}
		return nil, &ScanError{Kind: KindIO, Path: path, Err: errors.Wrap(err, "opening spill log")}
	}
	r, err := decompress(f, path)
	if err != nil {
		_ = f.Close()
		return nil, &ScanError{Kind: KindIO, Path: path, Err: err}
	}
	return &decodedFile{ReadCloser: r, file: f}, nil
}
