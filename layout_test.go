package hdrhistogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutDerivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lowest  int64
		highest int64
		sigfigs int

		unitMagnitude  uint32
		subBucketCount int32
		bucketCount    int32
		countsLen      int32
	}{
		{
			name:   "hour of microseconds",
			lowest: 1, highest: 3600000000, sigfigs: 3,
			unitMagnitude: 0, subBucketCount: 2048, bucketCount: 22, countsLen: 23552,
		},
		{
			name:   "ten millions",
			lowest: 1, highest: 10000000, sigfigs: 3,
			unitMagnitude: 0, subBucketCount: 2048, bucketCount: 14, countsLen: 15360,
		},
		{
			name:   "ten billions",
			lowest: 1, highest: 10000000000, sigfigs: 3,
			unitMagnitude: 0, subBucketCount: 2048, bucketCount: 24, countsLen: 25600,
		},
		{
			name:   "single digit precision",
			lowest: 1, highest: 1000, sigfigs: 1,
			unitMagnitude: 0, subBucketCount: 32, bucketCount: 6, countsLen: 112,
		},
		{
			name:   "five digit precision",
			lowest: 1, highest: 10000000, sigfigs: 5,
			unitMagnitude: 0, subBucketCount: 262144, bucketCount: 7, countsLen: 1048576,
		},
		{
			name:   "coarse unit",
			lowest: 1000, highest: 3600000000, sigfigs: 2,
			unitMagnitude: 9, subBucketCount: 256, bucketCount: 16, countsLen: 2176,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l, err := newLayout(tc.lowest, tc.highest, tc.sigfigs)
			require.NoError(t, err)
			assert.Equal(t, tc.unitMagnitude, l.unitMagnitude)
			assert.Equal(t, tc.subBucketCount, l.subBucketCount)
			assert.Equal(t, tc.subBucketCount/2, l.subBucketHalfCount)
			assert.Equal(t, int64(tc.subBucketCount-1)<<l.unitMagnitude, l.subBucketMask)
			assert.Equal(t, tc.bucketCount, l.bucketCount)
			assert.Equal(t, tc.countsLen, l.countsLen)
		})
	}
}

func TestNewLayoutInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lowest  int64
		highest int64
		sigfigs int
	}{
		{name: "zero lowest", lowest: 0, highest: 1000, sigfigs: 3},
		{name: "negative lowest", lowest: -10, highest: 1000, sigfigs: 3},
		{name: "range too narrow", lowest: 1000, highest: 1999, sigfigs: 3},
		{name: "zero sigfigs", lowest: 1, highest: 1000, sigfigs: 0},
		{name: "six sigfigs", lowest: 1, highest: 1000, sigfigs: 6},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := newLayout(tc.lowest, tc.highest, tc.sigfigs)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLayoutEquivalentValues(t *testing.T) {
	t.Parallel()

	l, err := newLayout(1, 3600000000, 3)
	require.NoError(t, err)

	tests := []struct {
		in      int64
		highest int64
	}{
		{in: 0, highest: 0},
		{in: 1, highest: 1},
		{in: 2047, highest: 2047},
		{in: 2048, highest: 2049},
		{in: 2050, highest: 2051},
		{in: 8180 * 1024, highest: 8183*1024 + 1023},
		{in: 8193 * 1024, highest: 8199*1024 + 1023},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.highest, l.highestEquivalentValue(tc.in), tc.in)
	}
}

func TestLayoutEquivalentRangeProperties(t *testing.T) {
	t.Parallel()

	l, err := newLayout(1, 10000000, 3)
	require.NoError(t, err)

	check := func(v int64) {
		lowest := l.lowestEquivalentValue(v)
		highest := l.highestEquivalentValue(v)
		size := l.sizeOfEquivalentRange(v)

		require.LessOrEqual(t, lowest, v, "value %d", v)
		require.LessOrEqual(t, v, highest, "value %d", v)
		require.Equal(t, highest-lowest+1, size, "value %d", v)
		require.Zero(t, size&(size-1), "range of value %d is not a power of two", v)
		require.Equal(t, lowest, l.lowestEquivalentValue(lowest), "value %d", v)
		require.Equal(t, lowest, l.lowestEquivalentValue(highest), "value %d", v)
	}
	for v := int64(0); v < 500000; v++ {
		check(v)
	}
	for v := int64(500000); v <= 10000000; v += 4999 {
		check(v)
	}
}

func TestLayoutRelativeError(t *testing.T) {
	t.Parallel()

	// Two significant digits promise at most 1% error against the value
	// itself over the whole single-unit resolution range and beyond.
	l, err := newLayout(1, 3600000000, 2)
	require.NoError(t, err)

	for v := int64(1); v < 300000; v++ {
		highest := l.highestEquivalentValue(v)
		require.LessOrEqual(t, (highest-v)*100, v, "value %d resolved to %d", v, highest)
	}
}

func TestLayoutCountsIndexBounds(t *testing.T) {
	t.Parallel()

	configs := []struct {
		lowest  int64
		highest int64
		sigfigs int
	}{
		{lowest: 1, highest: 1000, sigfigs: 1},
		{lowest: 1, highest: 3600000000, sigfigs: 3},
		{lowest: 64, highest: 100000, sigfigs: 2},
	}
	for _, c := range configs {
		l, err := newLayout(c.lowest, c.highest, c.sigfigs)
		require.NoError(t, err)

		step := c.highest / 50000
		if step == 0 {
			step = 1
		}
		for v := int64(0); v <= c.highest; v += step {
			idx := l.countsIndexFor(v)
			require.GreaterOrEqual(t, idx, int32(0), "value %d", v)
			require.Less(t, idx, l.countsLen, "value %d", v)
		}
		idx := l.countsIndexFor(c.highest)
		require.Less(t, idx, l.countsLen)
	}
}

func TestLayoutValueForCountsIndexRoundTrip(t *testing.T) {
	t.Parallel()

	l, err := newLayout(1, 3600000000, 3)
	require.NoError(t, err)

	for i := int32(0); i < l.countsLen; i++ {
		v := l.valueForCountsIndex(i)
		require.Equal(t, i, l.countsIndexFor(v), "index %d resolved to value %d", i, v)
		require.Equal(t, v, l.lowestEquivalentValue(v), "index %d", i)
	}
}

func TestLayoutMedianEquivalentValue(t *testing.T) {
	t.Parallel()

	l, err := newLayout(1, 3600000000, 3)
	require.NoError(t, err)

	tests := []struct {
		in  int64
		exp int64
	}{
		{in: 1, exp: 1},
		{in: 2, exp: 3},
		{in: 2048, exp: 2049},
		{in: 2050, exp: 2051},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.exp, l.medianEquivalentValue(tc.in), tc.in)
	}
}
