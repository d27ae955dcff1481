package stats

import "sort"

// Frequency is a value and how often it occurred.
type Frequency struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// UniqueSet is an exact counting set of raw strings.
type UniqueSet struct {
	counts map[string]int64
}

// NewUniqueSet creates an empty set.
func NewUniqueSet() *UniqueSet {
	return &UniqueSet{counts: make(map[string]int64)}
}

// Add records one occurrence of v.
func (s *UniqueSet) Add(v string) {
	s.counts[v]++
}

// Len returns the number of distinct values.
func (s *UniqueSet) Len() int {
	return len(s.counts)
}

// Count returns how often v was added.
func (s *UniqueSet) Count(v string) int64 {
	return s.counts[v]
}

// Top returns the n most frequent values, ties broken by value.
func (s *UniqueSet) Top(n int) []Frequency {
	out := make([]Frequency, 0, len(s.counts))
	for v, c := range s.counts {
		out = append(out, Frequency{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
