package query

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ccollicutt/spilltrace/pkg/spill"
)

// Field scopes which record fields a Predicate looks at.
type Field string

const (
	FieldAll     Field = "all"
	FieldPC      Field = "pc"
	FieldStorePC Field = "store_pc"
	FieldLoadPC  Field = "load_pc"
	FieldMem     Field = "mem"
	FieldTime    Field = "time"
	FieldID      Field = "id"
)

// Fields lists the accepted field names.
var Fields = []Field{FieldAll, FieldPC, FieldStorePC, FieldLoadPC, FieldMem, FieldTime, FieldID}

// ParseField validates a field name. An empty name means FieldAll.
func ParseField(s string) (Field, error) {
	if s == "" {
		return FieldAll, nil
	}
	for _, f := range Fields {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", errors.Newf("unknown field %q (must be one of all, pc, store_pc, load_pc, mem, time, id)", s)
}

// candidate field positions per scope. FieldID is handled separately.
var fieldIndexes = map[Field][]int{
	FieldAll: {
		spill.FieldStorePC, spill.FieldLoadPC, spill.FieldMemoryAddress,
		spill.FieldStoreTick, spill.FieldLoadTick, spill.FieldTickDiff,
	},
	FieldPC:      {spill.FieldStorePC, spill.FieldLoadPC},
	FieldStorePC: {spill.FieldStorePC},
	FieldLoadPC:  {spill.FieldLoadPC},
	FieldMem:     {spill.FieldMemoryAddress},
	FieldTime:    {spill.FieldStoreTick, spill.FieldLoadTick, spill.FieldTickDiff},
}

// Predicate is a field-scoped text match applied to raw records.
type Predicate struct {
	Term     string
	Field    Field
	UseRegex bool

	re    *regexp.Regexp
	lower string
}

// NewPredicate compiles a match rule:
//  1. an empty term matches everything
//  2. useRegex compiles term as a case-insensitive regular expression
//  3. a term containing * is a wildcard, * becoming .*
//  4. anything else is a case-insensitive substring test
//
// When 2 or 3 fail to compile, the raw term is used as a substring instead.
func NewPredicate(term string, field Field, useRegex bool) *Predicate {
	if _, ok := fieldIndexes[field]; !ok && field != FieldID {
		field = FieldAll
	}
	p := &Predicate{
		Term:     term,
		Field:    field,
		UseRegex: useRegex,
		lower:    strings.ToLower(term),
	}

	var pattern string
	switch {
	case term == "":
		return p
	case useRegex:
		pattern = term
	case strings.Contains(term, "*"):
		pattern = strings.ReplaceAll(term, "*", ".*")
	default:
		return p
	}

	if re, err := regexp.Compile("(?i)" + pattern); err == nil {
		p.re = re
	}
	return p
}

// MatchAll returns a predicate that accepts every record.
func MatchAll() *Predicate {
	return NewPredicate("", FieldAll, false)
}

// IsRegex reports whether the predicate ended up as a compiled pattern.
// It is false for invalid patterns that fell back to substring matching.
func (p *Predicate) IsRegex() bool {
	return p.re != nil
}

// Match reports whether any candidate field of r matches.
func (p *Predicate) Match(r *spill.Record) bool {
	if p == nil || p.Term == "" {
		return true
	}
	if p.Field == FieldID {
		return p.matchString(r.IDString())
	}
	for _, idx := range fieldIndexes[p.Field] {
		if p.matchString(r.Field(idx)) {
			return true
		}
	}
	return false
}

func (p *Predicate) matchString(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}
