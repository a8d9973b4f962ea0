package hdrhistogram

import "math"

// Min returns the lowest equivalent value of the first non-empty bucket, or
// zero for an empty histogram.
func (h *Histogram) Min() int64 {
	it := h.Iterator()
	for it.Next() {
		if it.Count != 0 {
			return it.LowestEquivalentValue
		}
	}
	return 0
}

// Max returns the highest equivalent value of the last non-empty bucket, or
// zero for an empty histogram.
func (h *Histogram) Max() int64 {
	var max int64
	it := h.Iterator()
	for it.Next() {
		if it.Count != 0 {
			max = it.HighestEquivalentValue
		}
	}
	return max
}

// Mean returns the arithmetic mean of the recorded observations, with every
// observation standing at its bucket's median equivalent value. Integer
// division; zero for an empty histogram.
func (h *Histogram) Mean() int64 {
	if h.totalCount == 0 {
		return 0
	}
	var total int64
	it := h.Iterator()
	for it.Next() {
		if it.Count != 0 {
			total += it.Count * h.medianEquivalentValue(it.LowestEquivalentValue)
		}
	}
	return total / h.totalCount
}

// StdDev returns the standard deviation of the recorded observations around
// Mean, truncated to an integer. Zero for an empty histogram.
func (h *Histogram) StdDev() int64 {
	if h.totalCount == 0 {
		return 0
	}
	mean := h.Mean()
	var devTotal float64
	it := h.Iterator()
	for it.Next() {
		if it.Count != 0 {
			dev := float64(h.medianEquivalentValue(it.LowestEquivalentValue) - mean)
			devTotal += dev * dev * float64(it.Count)
		}
	}
	return int64(math.Sqrt(devTotal / float64(h.totalCount)))
}

// ValueAtPercentile returns the value at the given percentile in [0,100].
func (h *Histogram) ValueAtPercentile(p float64) int64 {
	return h.Percentiles([]float64{p})[0]
}

// Percentiles resolves a batch of percentile targets in one pass over the
// buckets, so asking for the usual 50/90/99/99.9 ladder costs the same as
// asking for one. targets must be sorted ascending; each is clamped to
// [0,100]. Every result is the highest equivalent value of the first bucket
// at which the cumulative count reaches the target's share of the total,
// which means a 0.0 target resolves to the first non-empty bucket. All
// results are zero for an empty histogram.
func (h *Histogram) Percentiles(targets []float64) []int64 {
	results := make([]int64, len(targets))
	if h.totalCount == 0 {
		return results
	}

	i := 0
	var cumulative int64
	it := h.Iterator()
	for i < len(targets) && it.Next() {
		cumulative += it.Count
		for i < len(targets) && cumulative >= h.targetCount(targets[i]) {
			results[i] = it.HighestEquivalentValue
			i++
		}
	}
	return results
}

// targetCount translates a percentile into the cumulative count at which it
// is reached, at least 1 so that a zero target lands on the first recorded
// observation.
func (h *Histogram) targetCount(p float64) int64 {
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	c := int64(p/100*float64(h.totalCount) + 0.5)
	if c < 1 {
		c = 1
	}
	if c > h.totalCount {
		c = h.totalCount
	}
	return c
}

// Bar is one non-empty bucket of a histogram's distribution.
type Bar struct {
	From, To int64
	Count    int64
}

// Distribution returns the non-empty buckets in ascending value order.
func (h *Histogram) Distribution() []Bar {
	var bars []Bar
	it := h.Iterator()
	for it.Next() {
		if it.Count != 0 {
			bars = append(bars, Bar{
				From:  it.LowestEquivalentValue,
				To:    it.HighestEquivalentValue,
				Count: it.Count,
			})
		}
	}
	return bars
}
