package analyzer

import (
	"math/rand/v2"
	"strings"

	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/spill"
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

// Address heatmap cells are keyed by the trailing characters of the address.
const (
	heatmapSuffixLen = 4
	heatmapCells     = 20
)

const pairSep = "\x00"

// buildCharts derives every chart payload from events. Histogram and
// frequency tables use all of events; scatter and timeline points are
// thinned to ChartPoints with a reservoir drawn from rng.
func buildCharts(events []spill.Event, s config.AnalysisConfig, rng *rand.Rand) Charts {
	c := emptyCharts()
	if len(events) == 0 {
		return c
	}

	durations := make([]int64, len(events))
	storePCs := stats.NewUniqueSet()
	loadPCs := stats.NewUniqueSet()
	pairs := stats.NewUniqueSet()
	suffixes := stats.NewUniqueSet()
	for i, ev := range events {
		durations[i] = ev.Duration()
		storePCs.Add(ev.StorePC)
		loadPCs.Add(ev.LoadPC)
		pairs.Add(ev.StorePC + pairSep + ev.LoadPC)
		suffixes.Add(addressSuffix(ev.MemoryAddress))
	}

	c.DurationHistogram = stats.BuildHistogram(durations, s.HistogramBuckets)
	c.TopStorePCs = storePCs.Top(s.TopN)
	c.TopLoadPCs = loadPCs.Top(s.TopN)
	c.AddressHeatmap = suffixes.Top(heatmapCells)

	for _, f := range pairs.Top(s.TopN) {
		store, load, _ := strings.Cut(f.Value, pairSep)
		c.PCPairs = append(c.PCPairs, PCPair{StorePC: store, LoadPC: load, Count: f.Count})
	}

	points := chartPoints(events, s.ChartPoints, rng)
	c.Scatter = make([]ScatterPoint, 0, len(points))
	c.Timeline = Timeline{X: make([]int64, 0, len(points)), Y: make([]int64, 0, len(points))}
	for _, ev := range points {
		c.Scatter = append(c.Scatter, ScatterPoint{
			Duration:       ev.Duration(),
			StoreInstCount: ev.StoreInstCount,
			LoadInstCount:  ev.LoadInstCount,
			PC:             ev.StorePC,
			Address:        ev.MemoryAddress,
		})
		c.Timeline.X = append(c.Timeline.X, ev.StoreInstCount)
		c.Timeline.Y = append(c.Timeline.Y, ev.Duration())
	}
	return c
}

// chartPoints returns events unchanged when they fit, else a uniform
// sample of limit of them.
func chartPoints(events []spill.Event, limit int, rng *rand.Rand) []spill.Event {
	if limit <= 0 || len(events) <= limit {
		return events
	}
	res := stats.NewReservoir[spill.Event](limit, rng)
	for _, ev := range events {
		res.Add(ev)
	}
	return res.Items()
}

func addressSuffix(addr string) string {
	if len(addr) <= heatmapSuffixLen {
		return addr
	}
	return addr[len(addr)-heatmapSuffixLen:]
}
