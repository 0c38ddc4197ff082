package ope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogGammaSmallIntegers(t *testing.T) {
	// ln Gamma(n) = ln((n-1)!) for positive integers.
	factorials := map[uint64]float64{
		1:  1,
		2:  1,
		3:  2,
		4:  6,
		5:  24,
		6:  120,
		7:  720,
		8:  5040,
		10: 362880,
		20: 121645100408832000,
	}
	for x, fact := range factorials {
		assert.InDelta(t, math.Log(fact), logGamma(x), 1e-8, "logGamma(%d)", x)
	}
}

func TestHGDSampleEqualRanges(t *testing.T) {
	in := Range{Start: 10, End: 19}
	out := Range{Start: 100, End: 109}

	prng, err := NewPRNG([]byte("k"), 104)
	require.NoError(t, err)

	// With equal range sizes the mapping is pinned: no coins are consumed.
	split, err := hgdSample(in, out, 104, prng)
	require.NoError(t, err)
	assert.Equal(t, uint64(14), split)
}

func TestHGDSampleWithinRange(t *testing.T) {
	in := Range{Start: 1, End: 100}
	out := Range{Start: 1, End: 10000}

	for _, seed := range []uint64{1, 5, 500, 5000, 9999} {
		prng, err := NewPRNG([]byte("hgd-test-key"), seed)
		require.NoError(t, err)
		split, err := hgdSample(in, out, seed, prng)
		require.NoError(t, err)
		assert.True(t, in.Contains(split), "split %d for seed %d", split, seed)
	}
}

func TestHGDSampleDeterministic(t *testing.T) {
	in := Range{Start: 1, End: 1000}
	out := Range{Start: 1, End: 100000}

	for _, seed := range []uint64{50, 50000} {
		a, err := NewPRNG([]byte("k"), seed)
		require.NoError(t, err)
		b, err := NewPRNG([]byte("k"), seed)
		require.NoError(t, err)

		s1, err := hgdSample(in, out, seed, a)
		require.NoError(t, err)
		s2, err := hgdSample(in, out, seed, b)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	}
}

func TestHGDSampleRejectsBadInput(t *testing.T) {
	prng, err := NewPRNG([]byte("k"), 1)
	require.NoError(t, err)

	// Input range larger than output range.
	_, err = hgdSample(Range{Start: 1, End: 100}, Range{Start: 1, End: 10}, 5, prng)
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Seed outside the output range.
	_, err = hgdSample(Range{Start: 1, End: 5}, Range{Start: 1, End: 10}, 50, prng)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
