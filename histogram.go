// Package hdrhistogram records the distribution of positive integer
// observations, such as latencies in nanoseconds, across a wide value range
// in constant memory. The histogram trades exactness for a bounded footprint:
// every recorded value is counted in a bucket whose width guarantees the
// configured number of significant decimal digits, so the worst-case relative
// error of any query is fixed at construction time.
//
// Recording is O(1) and allocation-free; summaries and percentiles are a
// single pass over the counter array. The structure is not safe for
// concurrent use: shard histograms per goroutine and Merge them, or guard a
// shared one externally (the recorder subpackage does the latter).
package hdrhistogram

import "fmt"

// A Histogram counts observations in a fixed-size array of buckets with
// exponentially growing widths. It is parameterized once at construction by
// the lowest discernible value, the highest trackable value, and the number
// of significant decimal digits to preserve.
type Histogram struct {
	layout
	counts     []int64
	totalCount int64
}

// New returns a histogram tracking values between lowest and highest with
// sigfigs significant decimal digits of precision.
//
// lowest is the smallest value the histogram tells apart from its neighbors;
// values below it collapse into the coarsest quantum. highest must be at
// least 2*lowest. sigfigs must be in [1,5]. Invalid parameters are reported
// as an error wrapping ErrInvalidConfig.
func New(lowest, highest int64, sigfigs int) (*Histogram, error) {
	l, err := newLayout(lowest, highest, sigfigs)
	if err != nil {
		return nil, err
	}
	return &Histogram{
		layout: l,
		counts: make([]int64, l.countsLen),
	}, nil
}

// Record counts a single occurrence of v.
func (h *Histogram) Record(v int64) error {
	return h.RecordN(v, 1)
}

// RecordN counts n occurrences of v. Negative values and values above the
// highest trackable value are rejected with an error wrapping
// ErrValueOutOfRange and leave the histogram unchanged.
func (h *Histogram) RecordN(v, n int64) error {
	if v < 0 {
		return fmt.Errorf("%w: cannot record negative value %d", ErrValueOutOfRange, v)
	}
	idx := h.countsIndexFor(v)
	if v > h.highestTrackable || idx < 0 || idx >= h.countsLen {
		return fmt.Errorf("%w: value %d exceeds highest trackable value %d",
			ErrValueOutOfRange, v, h.highestTrackable)
	}
	h.counts[idx] += n
	h.totalCount += n
	return nil
}

// RecordCorrectedValue records v and back-fills the latency shadow a stalled
// recorder would have missed, assuming observations were expected every
// expectedInterval. Only meaningful for fixed-rate recording loops.
func (h *Histogram) RecordCorrectedValue(v, expectedInterval int64) error {
	if err := h.Record(v); err != nil {
		return err
	}
	if expectedInterval <= 0 || v <= expectedInterval {
		return nil
	}
	for missing := v - expectedInterval; missing >= expectedInterval; missing -= expectedInterval {
		if err := h.Record(missing); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of recorded observations equivalent to v, or zero
// for values outside the trackable range.
func (h *Histogram) Count(v int64) int64 {
	if v < 0 || v > h.highestTrackable {
		return 0
	}
	idx := h.countsIndexFor(v)
	if idx < 0 || idx >= h.countsLen {
		return 0
	}
	return h.counts[idx]
}

// TotalCount returns the number of recorded observations.
func (h *Histogram) TotalCount() int64 {
	return h.totalCount
}

// Merge adds other's counts into h. Both histograms must have been built with
// the same parameters; otherwise an error wrapping ErrIncompatibleLayout is
// returned and neither histogram is modified. other is left untouched either
// way.
func (h *Histogram) Merge(other *Histogram) error {
	if !h.layout.compatibleWith(other.layout) {
		return fmt.Errorf(
			"%w: (%d, %d, %d sigfigs) vs (%d, %d, %d sigfigs)",
			ErrIncompatibleLayout,
			h.lowestDiscernible, h.highestTrackable, h.significantDigits,
			other.lowestDiscernible, other.highestTrackable, other.significantDigits)
	}
	for i, c := range other.counts {
		h.counts[i] += c
	}
	h.totalCount += other.totalCount
	return nil
}

// Reset zeroes every counter, restoring the histogram to its freshly
// constructed state. The layout is untouched.
func (h *Histogram) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.totalCount = 0
}

// ByteSize returns the memory held by the counter array and the running
// total, which dominate the footprint.
func (h *Histogram) ByteSize() int {
	return len(h.counts)*8 + 8
}

// LowestDiscernibleValue returns the construction-time lower resolution bound.
func (h *Histogram) LowestDiscernibleValue() int64 {
	return h.lowestDiscernible
}

// HighestTrackableValue returns the construction-time upper range bound.
func (h *Histogram) HighestTrackableValue() int64 {
	return h.highestTrackable
}

// SignificantDigits returns the construction-time precision, in decimal
// digits.
func (h *Histogram) SignificantDigits() int {
	return int(h.significantDigits)
}

// LowestEquivalentValue returns the smallest value counted in the same
// bucket as v.
func (h *Histogram) LowestEquivalentValue(v int64) int64 {
	return h.lowestEquivalentValue(v)
}

// HighestEquivalentValue returns the largest value counted in the same
// bucket as v.
func (h *Histogram) HighestEquivalentValue(v int64) int64 {
	return h.highestEquivalentValue(v)
}

// SizeOfEquivalentRange returns the width of the bucket holding v, always a
// power of two.
func (h *Histogram) SizeOfEquivalentRange(v int64) int64 {
	return h.sizeOfEquivalentRange(v)
}
