// Package analyzer builds full analysis reports over a spill log.
package analyzer

import (
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

// Report is the result of one full analysis run.
type Report struct {
	RunID        string `json:"run_id"`
	SpillCount   int    `json:"spill_count"`
	Architecture string `json:"architecture"`
	SpillFile    string `json:"spill_file"`

	// FileSize is the on-disk size in human readable form, e.g. "12.5 MB".
	FileSize string `json:"file_size,omitempty"`

	// Fingerprint is an xxhash64 over every record line, hex encoded.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Sampled is true when the large strategy was used and charts are
	// drawn from a reservoir sample.
	Sampled    bool `json:"sampled"`
	SampleSize int  `json:"sample_size,omitempty"`

	Statistics  Statistics  `json:"statistics"`
	Charts      Charts      `json:"charts"`
	Performance Performance `json:"performance"`
}

// Statistics summarises spill durations and distinct locations.
type Statistics struct {
	TotalSpills           int               `json:"total_spills"`
	AvgSpillDuration      float64           `json:"avg_spill_duration"`
	UniqueMemoryAddresses int               `json:"unique_memory_addresses"`
	UniqueStorePCs        int               `json:"unique_store_pcs"`
	UniqueLoadPCs         int               `json:"unique_load_pcs"`
	MaxSpillDuration      int64             `json:"max_spill_duration"`
	MinSpillDuration      int64             `json:"min_spill_duration"`
	DurationPercentiles   stats.Percentiles `json:"duration_percentiles"`

	// InstDiffStats describes load_inst_count - store_inst_count.
	InstDiffStats stats.InstDelta `json:"inst_diff_stats"`

	AddressRange *stats.AddressRange `json:"address_range,omitempty"`
	TopAddresses []stats.Frequency   `json:"top_addresses"`
}

// Charts holds the chart payloads. All of them are derived from the
// retained events or the reservoir sample, except HotStorePCs.
type Charts struct {
	DurationHistogram []stats.Bucket    `json:"duration_histogram"`
	Scatter           []ScatterPoint    `json:"scatter"`
	TopStorePCs       []stats.Frequency `json:"top_store_pcs"`
	TopLoadPCs        []stats.Frequency `json:"top_load_pcs"`
	PCPairs           []PCPair          `json:"pc_pairs"`
	AddressHeatmap    []stats.Frequency `json:"address_heatmap"`
	Timeline          Timeline          `json:"timeline"`

	// HotStorePCs is the exact top store PC table over every record.
	// Only the large strategy fills it.
	HotStorePCs []stats.Frequency `json:"hot_store_pcs,omitempty"`
}

// ScatterPoint is one plotted spill.
type ScatterPoint struct {
	Duration       int64  `json:"duration"`
	StoreInstCount int64  `json:"store_inst_count"`
	LoadInstCount  int64  `json:"load_inst_count"`
	PC             string `json:"pc"`
	Address        string `json:"address"`
}

// PCPair counts how often a store PC was reloaded by a given load PC.
type PCPair struct {
	StorePC string `json:"store_pc"`
	LoadPC  string `json:"load_pc"`
	Count   int64  `json:"count"`
}

// Timeline is the store_inst_count against tick_diff series.
type Timeline struct {
	X []int64 `json:"x"`
	Y []int64 `json:"y"`
}

// Performance describes how long the analysis took.
type Performance struct {
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	SpillsPerSecond       float64 `json:"spills_per_second"`
}

// HasSpills reports whether the log held any spill records.
func (r *Report) HasSpills() bool {
	return r.SpillCount > 0
}

func emptyCharts() Charts {
	return Charts{
		DurationHistogram: []stats.Bucket{},
		Scatter:           []ScatterPoint{},
		TopStorePCs:       []stats.Frequency{},
		TopLoadPCs:        []stats.Frequency{},
		PCPairs:           []PCPair{},
		AddressHeatmap:    []stats.Frequency{},
		Timeline:          Timeline{X: []int64{}, Y: []int64{}},
	}
}
