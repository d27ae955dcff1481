package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/spilltrace/pkg/config"
	"github.com/ccollicutt/spilltrace/pkg/spill"
	"github.com/ccollicutt/spilltrace/pkg/stats"
)

func TestBuildCharts_Empty(t *testing.T) {
	c := buildCharts(nil, config.DefaultConfig().Analysis, stats.NewRand(1))
	assert.Empty(t, c.DurationHistogram)
	assert.NotNil(t, c.Scatter)
	assert.NotNil(t, c.Timeline.X)
}

func TestBuildCharts_CapsPoints(t *testing.T) {
	events := make([]spill.Event, 5000)
	for i := range events {
		events[i] = spill.Event{
			StorePC:        fmt.Sprintf("0x%d", i%13),
			LoadPC:         "0x1",
			MemoryAddress:  fmt.Sprintf("0xabc%04d", i%50),
			TickDiff:       int64(i),
			StoreInstCount: int64(i * 2),
			LineNumber:     i + 1,
		}
	}
	s := config.DefaultConfig().Analysis

	c := buildCharts(events, s, stats.NewRand(8))
	assert.Len(t, c.Scatter, 1000)
	assert.Len(t, c.Timeline.X, 1000)
	for i, p := range c.Scatter {
		assert.Equal(t, p.StoreInstCount, c.Timeline.X[i])
		assert.Equal(t, p.Duration, c.Timeline.Y[i])
	}

	total := 0
	for _, b := range c.DurationHistogram {
		total += b.Count
	}
	assert.Equal(t, 5000, total, "histogram uses every event")

	assert.Len(t, c.TopStorePCs, 10)
	assert.Len(t, c.TopLoadPCs, 1)
	assert.Len(t, c.AddressHeatmap, 20)
	require.Len(t, c.PCPairs, 10)
	assert.Equal(t, "0x1", c.PCPairs[0].LoadPC)
}

func TestAddressSuffix(t *testing.T) {
	assert.Equal(t, "beef", addressSuffix("0xdeadbeef"))
	assert.Equal(t, "0x1", addressSuffix("0x1"))
	assert.Equal(t, "", addressSuffix(""))
}
