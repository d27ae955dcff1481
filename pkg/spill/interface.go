package spill

import "context"

// Source provides a forward-only iterator over SPILL records.
// Implementations are not safe for concurrent use; open one Source per query.
type Source interface {
	// Next returns the next SPILL-prefixed record.
	// Returns io.EOF when no more records are available.
	Next(ctx context.Context) (*Record, error)

	// Close releases any resources held by the source.
	Close() error
}
