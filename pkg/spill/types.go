// Package spill reads register-spill trace logs produced by a simulator run.
//
// A spill log is line oriented. Records look like
//
//	SPILL,<store_pc>,<load_pc>,<memory_address>,<store_tick>,<load_tick>,<tick_diff>,<store_inst_count>,<load_inst_count>
//
// and every other line (headers, comments, blank lines) is ignored.
package spill

import "strconv"

// Prefix marks a candidate record line.
const Prefix = "SPILL,"

// MinFields is the number of comma separated fields a record must carry,
// including the leading SPILL tag. Extra fields are ignored.
const MinFields = 9

// Field positions within a split record line.
const (
	FieldTag = iota
	FieldStorePC
	FieldLoadPC
	FieldMemoryAddress
	FieldStoreTick
	FieldLoadTick
	FieldTickDiff
	FieldStoreInstCount
	FieldLoadInstCount
)

// Event is a single parsed spill record.
type Event struct {
	// StorePC and LoadPC are opaque program counter strings, compared as text.
	StorePC string `json:"store_pc"`
	LoadPC  string `json:"load_pc"`

	// MemoryAddress is the 0x-prefixed spill slot address.
	MemoryAddress string `json:"memory_address"`

	StoreTick int64 `json:"store_tick"`
	LoadTick  int64 `json:"load_tick"`

	// TickDiff is carried verbatim from the log and is the authoritative
	// spill duration. It is not recomputed from LoadTick - StoreTick.
	TickDiff int64 `json:"tick_diff"`

	StoreInstCount int64 `json:"store_inst_count"`
	LoadInstCount  int64 `json:"load_inst_count"`

	// LineNumber is the 1-based physical line of the record in the file.
	LineNumber int `json:"id"`
}

// ID returns the identity token of the event.
func (e Event) ID() string {
	return strconv.Itoa(e.LineNumber)
}

// Duration returns the spill duration in ticks.
func (e Event) Duration() int64 {
	return e.TickDiff
}

// Record is a SPILL-prefixed line that has been split but not yet parsed.
// Queries that only look at text fields never pay for integer parsing.
type Record struct {
	// LineNumber is the 1-based physical line number in the source file.
	LineNumber int

	// Fields holds the comma separated fields, including the SPILL tag.
	Fields []string
}

// Field returns the raw field at position i, or "" when the record is short.
func (r *Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Event parses the record into a typed Event.
// It reports false for malformed records.
func (r *Record) Event() (Event, bool) {
	return ParseFields(r.Fields, r.LineNumber)
}

// Valid reports whether the record would parse into an Event.
func (r *Record) Valid() bool {
	return ValidFields(r.Fields)
}

// IDString returns the identity token of the record.
func (r *Record) IDString() string {
	return strconv.Itoa(r.LineNumber)
}
