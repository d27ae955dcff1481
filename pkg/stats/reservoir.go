package stats

import "math/rand/v2"

// Reservoir keeps a fixed-capacity uniform random sample of a stream
// (Algorithm R). After n items each one survives with probability
// min(1, capacity/n) regardless of its position.
type Reservoir[T any] struct {
	items    []T
	capacity int
	seen     int64
	rng      *rand.Rand
}

// NewReservoir creates a reservoir holding at most capacity items.
// The random source is injected so tests can fix the seed.
func NewReservoir[T any](capacity int, rng *rand.Rand) *Reservoir[T] {
	if capacity < 0 {
		capacity = 0
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Reservoir[T]{
		items:    make([]T, 0, min(capacity, 1<<16)),
		capacity: capacity,
		rng:      rng,
	}
}

// Add offers one stream item to the reservoir.
func (r *Reservoir[T]) Add(item T) {
	i := r.seen
	r.seen++

	if i < int64(r.capacity) {
		r.items = append(r.items, item)
		return
	}
	if r.capacity == 0 {
		return
	}

	if j := r.rng.Int64N(i + 1); j < int64(r.capacity) {
		r.items[j] = item
	}
}

// Items returns a copy of the current sample.
func (r *Reservoir[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of items held.
func (r *Reservoir[T]) Len() int {
	return len(r.items)
}

// Seen returns the number of items offered so far.
func (r *Reservoir[T]) Seen() int64 {
	return r.seen
}

// Capacity returns the maximum sample size.
func (r *Reservoir[T]) Capacity() int {
	return r.capacity
}

// NewRand returns a seeded PCG source. A zero seed draws a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
