// Package stats holds the single-pass accumulators used by spill queries:
// exact running aggregates, reservoir sampling and equal-width histograms.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/ccollicutt/spilltrace/pkg/spill"
)

// Duration histogram bounds. Ticks above maxTrackedDuration are clamped.
const (
	maxTrackedDuration = int64(1) << 50
	durationSigFigs    = 3
)

// Summary is the result of an aggregation pass.
type Summary struct {
	Count           int64       `json:"count"`
	DurationSum     int64       `json:"duration_sum"`
	DurationMin     int64       `json:"duration_min"`
	DurationMax     int64       `json:"duration_max"`
	DurationMean    float64     `json:"duration_mean"`
	UniqueAddresses int         `json:"unique_memory_addresses"`
	UniqueStorePCs  int         `json:"unique_store_pcs"`
	UniqueLoadPCs   int         `json:"unique_load_pcs"`
	Percentiles     Percentiles `json:"percentiles"`
	InstDelta       InstDelta   `json:"inst_delta"`

	// AddressRange is nil when no address parsed as hex.
	AddressRange *AddressRange `json:"address_range,omitempty"`
}

// InstDelta describes load_inst_count - store_inst_count. Mean and StdDev
// are exact (StdDev is the sample deviation); Median is accurate to three
// significant figures and is the lower middle value for even counts.
type InstDelta struct {
	Mean   float64 `json:"mean"`
	Median int64   `json:"median"`
	StdDev float64 `json:"stddev"`
}

// AddressRange is the span of the spilled memory addresses.
type AddressRange struct {
	Min  string `json:"min"`
	Max  string `json:"max"`
	Size uint64 `json:"range_size"`
}

// Percentiles describes the tick_diff distribution.
// Quantiles are accurate to three significant figures.
type Percentiles struct {
	P25    int64   `json:"p25"`
	P50    int64   `json:"p50"`
	P75    int64   `json:"p75"`
	P99    int64   `json:"p99"`
	StdDev float64 `json:"stddev"`
}

// Aggregator accumulates exact statistics over every event of one pass.
// Memory grows only with the number of distinct addresses and PCs.
type Aggregator struct {
	count int64
	sum   int64
	min   int64
	max   int64

	addresses *UniqueSet
	storePCs  *UniqueSet
	loadPCs   *UniqueSet

	durations *hdrhistogram.Histogram
	delta     deltaStats

	addrSeen bool
	addrMin  uint64
	addrMax  uint64
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		min:       math.MaxInt64,
		max:       math.MinInt64,
		addresses: NewUniqueSet(),
		storePCs:  NewUniqueSet(),
		loadPCs:   NewUniqueSet(),
		durations: hdrhistogram.New(1, maxTrackedDuration, durationSigFigs),
		delta:     newDeltaStats(),
	}
}

// Add folds one event into the running totals.
func (a *Aggregator) Add(ev spill.Event) {
	d := ev.Duration()

	a.count++
	a.sum += d
	if d < a.min {
		a.min = d
	}
	if d > a.max {
		a.max = d
	}

	a.addresses.Add(ev.MemoryAddress)
	a.storePCs.Add(ev.StorePC)
	a.loadPCs.Add(ev.LoadPC)

	// Negative durations only come from inconsistent logs; they still count
	// toward the exact extrema above but not toward the quantiles.
	if d >= 0 {
		_ = a.durations.RecordValue(min(d, maxTrackedDuration))
	}

	a.delta.add(ev.LoadInstCount - ev.StoreInstCount)

	if v, ok := parseAddress(ev.MemoryAddress); ok {
		if !a.addrSeen || v < a.addrMin {
			a.addrMin = v
		}
		if !a.addrSeen || v > a.addrMax {
			a.addrMax = v
		}
		a.addrSeen = true
	}
}

// Count returns the number of events seen.
func (a *Aggregator) Count() int64 {
	return a.count
}

// Addresses exposes the exact memory address counts.
func (a *Aggregator) Addresses() *UniqueSet {
	return a.addresses
}

// StorePCs exposes the exact store PC counts.
func (a *Aggregator) StorePCs() *UniqueSet {
	return a.storePCs
}

// LoadPCs exposes the exact load PC counts.
func (a *Aggregator) LoadPCs() *UniqueSet {
	return a.loadPCs
}

// Summary returns the current totals. An empty aggregator yields zeros.
func (a *Aggregator) Summary() Summary {
	if a.count == 0 {
		return Summary{}
	}
	return Summary{
		Count:           a.count,
		DurationSum:     a.sum,
		DurationMin:     a.min,
		DurationMax:     a.max,
		DurationMean:    float64(a.sum) / float64(a.count),
		UniqueAddresses: a.addresses.Len(),
		UniqueStorePCs:  a.storePCs.Len(),
		UniqueLoadPCs:   a.loadPCs.Len(),
		Percentiles: Percentiles{
			P25:    a.durations.ValueAtQuantile(25),
			P50:    a.durations.ValueAtQuantile(50),
			P75:    a.durations.ValueAtQuantile(75),
			P99:    a.durations.ValueAtQuantile(99),
			StdDev: a.durations.StdDev(),
		},
		InstDelta:    a.delta.summary(),
		AddressRange: a.addressRange(),
	}
}

func (a *Aggregator) addressRange() *AddressRange {
	if !a.addrSeen {
		return nil
	}
	return &AddressRange{
		Min:  fmt.Sprintf("0x%x", a.addrMin),
		Max:  fmt.Sprintf("0x%x", a.addrMax),
		Size: a.addrMax - a.addrMin,
	}
}

// parseAddress reads a hex address with or without the 0x prefix.
func parseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// deltaStats keeps Welford running moments plus two magnitude histograms,
// one per sign, for the median.
type deltaStats struct {
	n    int64
	mean float64
	m2   float64
	neg  *hdrhistogram.Histogram
	pos  *hdrhistogram.Histogram
}

func newDeltaStats() deltaStats {
	return deltaStats{
		neg: hdrhistogram.New(1, maxTrackedDuration, durationSigFigs),
		pos: hdrhistogram.New(1, maxTrackedDuration, durationSigFigs),
	}
}

func (d *deltaStats) add(v int64) {
	d.n++
	delta := float64(v) - d.mean
	d.mean += delta / float64(d.n)
	d.m2 += delta * (float64(v) - d.mean)

	if v < 0 {
		mag := maxTrackedDuration
		if v > -mag {
			mag = -v
		}
		_ = d.neg.RecordValue(mag)
	} else {
		_ = d.pos.RecordValue(min(v, maxTrackedDuration))
	}
}

func (d *deltaStats) summary() InstDelta {
	if d.n == 0 {
		return InstDelta{}
	}
	out := InstDelta{Mean: d.mean, Median: d.median()}
	if d.n > 1 {
		out.StdDev = math.Sqrt(d.m2 / float64(d.n-1))
	}
	return out
}

func (d *deltaStats) median() int64 {
	neg, pos := d.neg.TotalCount(), d.pos.TotalCount()
	rank := (neg + pos + 1) / 2
	if rank <= neg {
		// ascending negatives run from the largest magnitude down
		return -d.neg.ValueAtQuantile(100 * float64(neg-rank+1) / float64(neg))
	}
	return d.pos.ValueAtQuantile(100 * float64(rank-neg) / float64(pos))
}

// Aggregate feeds an in-memory slice of events through a new Aggregator.
func Aggregate(events []spill.Event) *Aggregator {
	a := NewAggregator()
	for _, ev := range events {
		a.Add(ev)
	}
	return a
}
