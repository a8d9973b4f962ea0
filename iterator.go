package hdrhistogram

// A BucketIterator steps through every counter slot of a histogram in
// ascending value order, empty slots included. Each position exposes the
// slot's count and the closed interval of values it stands for.
//
// The iterator reads the histogram it was created from; recording into the
// histogram while iterating is not supported.
type BucketIterator struct {
	h            *Histogram
	bucketIdx    int32
	subBucketIdx int32

	// Count is the number of observations in the current slot.
	Count int64
	// LowestEquivalentValue is the smallest value the current slot counts.
	LowestEquivalentValue int64
	// HighestEquivalentValue is the largest value the current slot counts.
	HighestEquivalentValue int64
}

// Iterator returns a BucketIterator positioned before the first slot. Call
// Next to advance; it yields exactly once per counter slot.
func (h *Histogram) Iterator() *BucketIterator {
	return &BucketIterator{h: h, subBucketIdx: -1}
}

// Next advances to the following slot, returning false once every slot has
// been visited. Past the first bucket only the upper sub-bucket halves hold
// distinct slots, so the walk skips each lower half.
func (it *BucketIterator) Next() bool {
	it.subBucketIdx++
	if it.subBucketIdx >= it.h.subBucketCount {
		it.subBucketIdx = it.h.subBucketHalfCount
		it.bucketIdx++
	}
	idx := it.h.countsIndex(it.bucketIdx, it.subBucketIdx)
	if idx >= it.h.countsLen {
		return false
	}

	it.Count = it.h.counts[idx]
	it.LowestEquivalentValue = it.h.valueFromIndex(it.bucketIdx, it.subBucketIdx)
	size := int64(1) << (uint(it.h.unitMagnitude) + uint(it.bucketIdx))
	it.HighestEquivalentValue = it.LowestEquivalentValue + size - 1
	return true
}
