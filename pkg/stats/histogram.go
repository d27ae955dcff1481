package stats

// DefaultBuckets is the bucket count used when none is given.
const DefaultBuckets = 20

// Bucket is one equal-width histogram bin.
type Bucket struct {
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// BuildHistogram splits [min, max] of values into n equal-width buckets.
// A value v lands in bucket i when start_i <= v < end_i, except that the
// last bucket is closed on the right so the maximum is never dropped.
// Bucket counts always sum to len(values).
func BuildHistogram(values []int64, n int) []Bucket {
	if len(values) == 0 {
		return []Bucket{}
	}
	if n <= 0 {
		n = DefaultBuckets
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	// hi-lo can overflow int64, so spans are taken in float64.
	width := (float64(hi) - float64(lo)) / float64(n)
	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].RangeStart = float64(lo) + float64(i)*width
		buckets[i].RangeEnd = float64(lo) + float64(i+1)*width
	}
	buckets[n-1].RangeEnd = float64(hi)

	for _, v := range values {
		buckets[bucketIndex(v, lo, hi, width, n)].Count++
	}

	total := float64(len(values))
	for i := range buckets {
		buckets[i].Percentage = float64(buckets[i].Count) / total * 100
	}

	return buckets
}

func bucketIndex(v, lo, hi int64, width float64, n int) int {
	if v >= hi || width == 0 {
		return n - 1
	}
	idx := int((float64(v) - float64(lo)) / width)
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
