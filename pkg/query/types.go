// Package query answers count, search, sample and range queries over a
// spill log. Every call is one fresh forward scan of the file; nothing is
// cached between calls.
package query

import "github.com/ccollicutt/spilltrace/pkg/spill"

// DefaultLimit is the page size used when a request leaves Limit unset.
const DefaultLimit = 100

// CountRequest selects records to count.
type CountRequest struct {
	Predicate *Predicate

	// MaxScanLines stops the scan after this many SPILL records when > 0.
	MaxScanLines int
}

// CountResult is the outcome of a count query.
type CountResult struct {
	Count int `json:"count"`

	// ScannedLines counts SPILL-prefixed records examined, not raw lines.
	ScannedLines int `json:"scanned_lines"`

	// Partial is set when MaxScanLines cut the scan short.
	Partial bool  `json:"partial"`
	TookMS  int64 `json:"took_ms"`
}

// SearchRequest pages through records matching a predicate.
type SearchRequest struct {
	Predicate *Predicate
	Offset    int
	Limit     int
}

// RangeRequest pages through records by store instruction count.
// A nil bound is not applied. Both bounds are inclusive.
type RangeRequest struct {
	Min    *int64
	Max    *int64
	Offset int
	Limit  int
}

// Page is one page of search or range results.
type Page struct {
	Items        []spill.Event `json:"items"`
	ScannedLines int           `json:"scanned_lines"`

	// NextOffset is the offset to pass back for the following page. It is
	// nil once the log was exhausted before the page filled up.
	NextOffset *int  `json:"next_offset"`
	TookMS     int64 `json:"took_ms"`
}

// SampleRequest draws a uniform sample of matching records.
type SampleRequest struct {
	N int

	// Predicate optionally restricts the population. Nil samples everything.
	Predicate *Predicate

	// Seed fixes the random source; zero uses the engine seed.
	Seed uint64
}

// SampleResult is the outcome of a sample query.
type SampleResult struct {
	Items []spill.Event `json:"items"`

	// ScannedLines is the number of records the sample was drawn from.
	ScannedLines int   `json:"scanned_lines"`
	TookMS       int64 `json:"took_ms"`
}

func (r *RangeRequest) contains(v int64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return offset, limit
}
