package spill

import (
	"strconv"
	"strings"
)

// IsCandidate reports whether a raw line is a spill record candidate.
func IsCandidate(line string) bool {
	return strings.HasPrefix(line, Prefix)
}

// SplitLine strips the trailing line terminator and splits a line on commas.
func SplitLine(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	return strings.Split(line, ",")
}

// ParseLine parses one raw log line. Lines that are not SPILL records, have
// too few fields or carry non-numeric tick/count fields are rejected.
func ParseLine(line string, lineNum int) (Event, bool) {
	if !IsCandidate(line) {
		return Event{}, false
	}
	return ParseFields(SplitLine(line), lineNum)
}

// ParseFields builds an Event from already split fields.
func ParseFields(fields []string, lineNum int) (Event, bool) {
	if len(fields) < MinFields {
		return Event{}, false
	}

	var nums [5]int64
	for i := range nums {
		n, err := strconv.ParseInt(strings.TrimSpace(fields[FieldStoreTick+i]), 10, 64)
		if err != nil {
			return Event{}, false
		}
		nums[i] = n
	}

	return Event{
		StorePC:        fields[FieldStorePC],
		LoadPC:         fields[FieldLoadPC],
		MemoryAddress:  fields[FieldMemoryAddress],
		StoreTick:      nums[0],
		LoadTick:       nums[1],
		TickDiff:       nums[2],
		StoreInstCount: nums[3],
		LoadInstCount:  nums[4],
		LineNumber:     lineNum,
	}, true
}

// ValidFields reports whether ParseFields would accept fields, without
// building the Event.
func ValidFields(fields []string) bool {
	if len(fields) < MinFields {
		return false
	}
	for _, f := range fields[FieldStoreTick : FieldLoadInstCount+1] {
		if _, ok := ParseInt(f); !ok {
			return false
		}
	}
	return true
}

// ParseInt parses a single numeric field the same way ParseFields does.
func ParseInt(field string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
