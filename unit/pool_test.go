package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendUnitClamps(t *testing.T) {
	p := New()
	p.AppendUnit(10, 4*float32(math.Pi), 5, 0.1, 99)
	assert.Equal(t, float32(AmpMax), p.Amp[0])
	assert.InDelta(t, 0, float64(p.Phase[0]), 1e-4) // 4*pi wraps to 0
	assert.Equal(t, float32(BiasMax), p.Bias[0])
	assert.Equal(t, float32(SalienceMax), p.Salience[0])
}

func TestWrapPhase(t *testing.T) {
	assert.InDelta(t, 0, float64(WrapPhase(2*float32(math.Pi))), 1e-4)
	assert.InDelta(t, math.Pi-0.1, float64(WrapPhase(float32(math.Pi)-0.1)), 1e-4)
}

func TestReserveDoesNotShrink(t *testing.T) {
	p := New()
	for i := 0; i < 5; i++ {
		p.AppendUnit(0, 0, 0, 1, 0)
	}
	p.Reserve(10)
	assert.Equal(t, 5, p.Len())
	p.AppendUnit(0, 0, 0, 1, 0)
	assert.Equal(t, 6, p.Len())
}

func TestClearPending(t *testing.T) {
	p := New()
	p.AppendUnit(0, 0, 0, 1, 0)
	p.AddStimulus(0, 1.5)
	assert.Equal(t, float32(1.5), p.Pending[0])
	p.ClearPending()
	assert.Equal(t, float32(0), p.Pending[0])
}

func TestIsQuiet(t *testing.T) {
	p := New()
	p.AppendUnit(0, 0, 0, 1, 0)
	assert.True(t, p.IsQuiet(0, 0.1))
	p.SensorOf[0] = 2
	assert.False(t, p.IsQuiet(0, 0.1))
}
