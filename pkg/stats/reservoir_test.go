package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservoir_FillsBeforeReplacing(t *testing.T) {
	r := NewReservoir[int](5, NewRand(1))
	for i := 0; i < 5; i++ {
		r.Add(i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, r.Items())
	assert.EqualValues(t, 5, r.Seen())
}

func TestReservoir_SizeBounds(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		total    int
		wantLen  int
	}{
		{"capacity below total", 10, 1000, 10},
		{"capacity equals total", 50, 50, 50},
		{"capacity above total", 100, 7, 7},
		{"zero capacity", 0, 100, 0},
		{"empty stream", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReservoir[int](tt.capacity, NewRand(42))
			for i := 0; i < tt.total; i++ {
				r.Add(i)
			}
			assert.Equal(t, tt.wantLen, r.Len())
			assert.EqualValues(t, tt.total, r.Seen())
		})
	}
}

func TestReservoir_NoDuplicates(t *testing.T) {
	r := NewReservoir[int](100, NewRand(7))
	for i := 0; i < 10_000; i++ {
		r.Add(i)
	}
	seen := make(map[int]bool)
	for _, v := range r.Items() {
		require.False(t, seen[v], "duplicate item %d", v)
		seen[v] = true
	}
}

func TestReservoir_Deterministic(t *testing.T) {
	run := func() []int {
		r := NewReservoir[int](20, NewRand(99))
		for i := 0; i < 5000; i++ {
			r.Add(i)
		}
		return r.Items()
	}
	assert.Equal(t, run(), run())
}

// Each position of the stream should survive with probability k/n.
func TestReservoir_UniformMarginals(t *testing.T) {
	const (
		n      = 10
		k      = 3
		trials = 20_000
	)

	hits := make([]int, n)
	for seed := uint64(1); seed <= trials; seed++ {
		r := NewReservoir[int](k, NewRand(seed))
		for i := 0; i < n; i++ {
			r.Add(i)
		}
		for _, v := range r.Items() {
			hits[v]++
		}
	}

	want := float64(trials) * k / n
	for pos, h := range hits {
		assert.InDelta(t, want, float64(h), want*0.07, "position %d selected %d times", pos, h)
	}
}
