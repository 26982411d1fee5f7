package servo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPulseRange_AngleToPulse(t *testing.T) {
	tests := []struct {
		pulse    PulseRange
		angle    float64
		expected uint16
	}{
		{DefaultPulseRange, 0, 150},
		{DefaultPulseRange, 180, 600},
		{DefaultPulseRange, 90, 375},
		{DefaultPulseRange, 135, 488}, // 487.5 rounds up
		{DefaultPulseRange, 45, 263},  // 262.5 rounds up
		{PulseRange{Min: 205, Max: 410}, 0, 205},
		{PulseRange{Min: 205, Max: 410}, 180, 410},
		{PulseRange{Min: 205, Max: 410}, 90, 308},
	}

	for _, tt := range tests {
		got := tt.pulse.AngleToPulse(tt.angle)
		assert.Equal(t, tt.expected, got, "AngleToPulse(%v) with %+v", tt.angle, tt.pulse)
	}
}

func TestPulseRange_Monotonic(t *testing.T) {
	prev := DefaultPulseRange.AngleToPulse(0)
	for a := 1.0; a <= MaxAngle; a++ {
		p := DefaultPulseRange.AngleToPulse(a)
		assert.GreaterOrEqual(t, p, prev, "pulse decreased at %v°", a)
		prev = p
	}
}

func TestPulseRange_Validate(t *testing.T) {
	assert.NoError(t, DefaultPulseRange.Validate())
	assert.NoError(t, PulseRange{Min: 205, Max: 410}.Validate())
	assert.Error(t, PulseRange{Min: 600, Max: 150}.Validate())
	assert.Error(t, PulseRange{Min: 100, Max: 100}.Validate())
	assert.Error(t, PulseRange{Min: -1, Max: 100}.Validate())
	assert.Error(t, PulseRange{Min: 100, Max: 5000}.Validate())
}
