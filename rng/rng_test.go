package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDeterministic(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestSourceDiffersBySeed(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestFloat32Range(t *testing.T) {
	s := NewSource(7)
	for i := 0; i < 10000; i++ {
		f := s.Float32()
		assert.GreaterOrEqual(t, f, float32(0))
		assert.Less(t, f, float32(1))
	}
}

func TestIntNRange(t *testing.T) {
	s := NewSource(9)
	for i := 0; i < 10000; i++ {
		n := s.IntN(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
}

func TestIntNZeroOrNegative(t *testing.T) {
	s := NewSource(9)
	assert.Equal(t, 0, s.IntN(0))
	assert.Equal(t, 0, s.IntN(-3))
}

func TestStateRoundTrip(t *testing.T) {
	a := NewSource(123)
	_ = a.Uint64()
	_ = a.Uint64()
	state := a.State()

	b := NewSource(999) // different seed
	ok := b.SetState(state)
	require.True(t, ok)

	for i := 0; i < 50; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestSetStateRejectsBadLength(t *testing.T) {
	s := NewSource(1)
	ok := s.SetState([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestGaussianFinite(t *testing.T) {
	s := NewSource(5)
	for i := 0; i < 1000; i++ {
		g := s.Gaussian()
		assert.False(t, g != g) // not NaN
	}
}
