package hdrhistogram

import (
	"fmt"
	"math"
	"math/bits"
)

// layout holds the geometric constants derived from the three construction
// parameters. Values are counted in buckets of exponentially growing width:
// bucket 0 resolves single quanta of 2^unitMagnitude, and every following
// bucket doubles both its range and its quantum. Adjacent buckets overlap on
// their lower half, so only the upper half of buckets past the first one
// contributes counter slots.
type layout struct {
	lowestDiscernible int64
	highestTrackable  int64
	significantDigits int64

	unitMagnitude               uint32
	subBucketHalfCountMagnitude uint32
	subBucketCount              int32
	subBucketHalfCount          int32
	subBucketMask               int64
	bucketCount                 int32
	countsLen                   int32
}

// newLayout derives the bucket geometry for the given range and precision.
// The derivation is pure integer arithmetic; bit lengths stand in for the
// base-2 logarithms so the result is exact for every sigfigs in [1,5].
func newLayout(lowest, highest int64, sigfigs int) (layout, error) {
	if sigfigs < 1 || sigfigs > 5 {
		return layout{}, fmt.Errorf("%w: significant digits must be in [1,5], got %d", ErrInvalidConfig, sigfigs)
	}
	if lowest < 1 {
		return layout{}, fmt.Errorf("%w: lowest discernible value must be positive, got %d", ErrInvalidConfig, lowest)
	}
	if highest < 2*lowest {
		return layout{}, fmt.Errorf(
			"%w: highest trackable value %d must be at least twice the lowest discernible value %d",
			ErrInvalidConfig, highest, lowest)
	}

	// The range over which every single quantum gets its own counter slot.
	largestValueWithSingleUnitResolution := 2 * pow10(sigfigs)

	// bits.Len64(x-1) is an exact ceil(log2(x)) for x > 1.
	subBucketCountMagnitude := uint32(bits.Len64(uint64(largestValueWithSingleUnitResolution - 1)))
	subBucketHalfCountMagnitude := subBucketCountMagnitude - 1
	if subBucketHalfCountMagnitude < 1 {
		subBucketHalfCountMagnitude = 1
	}

	unitMagnitude := uint32(bits.Len64(uint64(lowest)) - 1)

	subBucketCount := int32(1) << (subBucketHalfCountMagnitude + 1)
	subBucketHalfCount := subBucketCount / 2
	subBucketMask := int64(subBucketCount-1) << unitMagnitude

	// Double the smallest untrackable value until the requested range is
	// covered, stopping early if another doubling would overflow int64.
	smallestUntrackable := int64(subBucketCount) << unitMagnitude
	bucketCount := int32(1)
	for smallestUntrackable < highest {
		if smallestUntrackable > math.MaxInt64/2 {
			break
		}
		smallestUntrackable <<= 1
		bucketCount++
	}

	return layout{
		lowestDiscernible:           lowest,
		highestTrackable:            highest,
		significantDigits:           int64(sigfigs),
		unitMagnitude:               unitMagnitude,
		subBucketHalfCountMagnitude: subBucketHalfCountMagnitude,
		subBucketCount:              subBucketCount,
		subBucketHalfCount:          subBucketHalfCount,
		subBucketMask:               subBucketMask,
		bucketCount:                 bucketCount,
		countsLen:                   (bucketCount + 1) * subBucketHalfCount,
	}, nil
}

// compatibleWith reports whether two layouts index their counter arrays
// identically, which is the precondition for exchanging raw counts.
func (l layout) compatibleWith(other layout) bool {
	return l.lowestDiscernible == other.lowestDiscernible &&
		l.highestTrackable == other.highestTrackable &&
		l.significantDigits == other.significantDigits
}

// bucketIndex locates the bucket holding v. The OR with subBucketMask floors
// values below the first bucket's range into bucket 0.
func (l layout) bucketIndex(v int64) int32 {
	pow2Ceiling := int32(bits.Len64(uint64(v | l.subBucketMask)))
	return pow2Ceiling - int32(l.unitMagnitude) - int32(l.subBucketHalfCountMagnitude+1)
}

// subBucketIndex locates v's slot within bucket bucketIdx. The result lies in
// [0, subBucketCount) for bucket 0 and in [subBucketHalfCount,
// subBucketCount) for every later bucket.
func (l layout) subBucketIndex(v int64, bucketIdx int32) int32 {
	return int32(v >> (uint(bucketIdx) + uint(l.unitMagnitude)))
}

// countsIndex flattens a (bucket, sub-bucket) pair into the counter array.
// Bucket 0 owns the first subBucketCount slots; each later bucket appends
// only its upper half.
func (l layout) countsIndex(bucketIdx, subBucketIdx int32) int32 {
	bucketBaseIdx := (bucketIdx + 1) << l.subBucketHalfCountMagnitude
	return bucketBaseIdx + subBucketIdx - l.subBucketHalfCount
}

func (l layout) countsIndexFor(v int64) int32 {
	bucketIdx := l.bucketIndex(v)
	return l.countsIndex(bucketIdx, l.subBucketIndex(v, bucketIdx))
}

// valueFromIndex returns the lowest value mapping to the given pair.
func (l layout) valueFromIndex(bucketIdx, subBucketIdx int32) int64 {
	return int64(subBucketIdx) << (uint(bucketIdx) + uint(l.unitMagnitude))
}

// valueForCountsIndex inverts countsIndex, returning the lowest value of the
// slot at flat index i.
func (l layout) valueForCountsIndex(i int32) int64 {
	bucketIdx := (i >> l.subBucketHalfCountMagnitude) - 1
	subBucketIdx := (i & (l.subBucketHalfCount - 1)) + l.subBucketHalfCount
	if bucketIdx < 0 {
		subBucketIdx -= l.subBucketHalfCount
		bucketIdx = 0
	}
	return l.valueFromIndex(bucketIdx, subBucketIdx)
}

// sizeOfEquivalentRange returns the width of the closed interval of values
// sharing v's counter, always a power of two. A sub-bucket index at or past
// subBucketCount can only be produced while stepping across a bucket
// boundary and belongs to the next bucket's resolution.
func (l layout) sizeOfEquivalentRange(v int64) int64 {
	bucketIdx := l.bucketIndex(v)
	subBucketIdx := l.subBucketIndex(v, bucketIdx)
	if subBucketIdx >= l.subBucketCount {
		bucketIdx++
	}
	return int64(1) << (uint(l.unitMagnitude) + uint(bucketIdx))
}

func (l layout) lowestEquivalentValue(v int64) int64 {
	bucketIdx := l.bucketIndex(v)
	return l.valueFromIndex(bucketIdx, l.subBucketIndex(v, bucketIdx))
}

func (l layout) nextNonEquivalentValue(v int64) int64 {
	return l.lowestEquivalentValue(v) + l.sizeOfEquivalentRange(v)
}

func (l layout) highestEquivalentValue(v int64) int64 {
	return l.nextNonEquivalentValue(v) - 1
}

// medianEquivalentValue is the representative used by Mean and StdDev. The
// halved-terms form cannot overflow at the top of the trackable range.
func (l layout) medianEquivalentValue(v int64) int64 {
	return l.lowestEquivalentValue(v)/2 + l.highestEquivalentValue(v)/2 + 1
}

func pow10(exp int) int64 {
	n := int64(1)
	for ; exp > 0; exp-- {
		n *= 10
	}
	return n
}
