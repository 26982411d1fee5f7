package servo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimits_Clamp(t *testing.T) {
	limits := Limits{
		0: {Min: 45, Max: 135},
		5: {Min: 60, Max: 120},
	}

	tests := []struct {
		ch       Channel
		angle    float64
		expected float64
	}{
		{0, 90, 90},
		{0, 45, 45},
		{0, 135, 135},
		{0, 200, 135},
		{0, -10, 45},
		{0, 44.9, 45},
		{5, 121, 120},
		{5, 59.5, 60},
		{5, 100.25, 100.25},
		{13, 180, 180}, // no limit configured
		{13, 0, 0},
		{13, 181, 180},
		{13, -1, 0},
	}

	for _, tt := range tests {
		got := limits.Clamp(tt.ch, tt.angle)
		assert.Equal(t, tt.expected, got, "Clamp(%d, %v)", tt.ch, tt.angle)
	}
}

func TestLimits_ClampIdempotentInRange(t *testing.T) {
	limits := Limits{3: {Min: 60, Max: 180}}
	for a := 60.0; a <= 180; a += 0.5 {
		assert.Equal(t, a, limits.Clamp(3, a))
		assert.Equal(t, a, limits.Clamp(3, limits.Clamp(3, a)))
	}
}

func TestLimits_Validate(t *testing.T) {
	assert.NoError(t, Limits{0: {Min: 45, Max: 135}, 4: {Min: 0, Max: 120}}.Validate())
	assert.NoError(t, Limits{1: {Min: 90, Max: 90}}.Validate())
	assert.NoError(t, Limits(nil).Validate())

	assert.Error(t, Limits{0: {Min: 135, Max: 45}}.Validate())
	assert.Error(t, Limits{0: {Min: -5, Max: 45}}.Validate())
	assert.Error(t, Limits{0: {Min: 0, Max: 190}}.Validate())

	var ic *InvalidChannelError
	assert.ErrorAs(t, Limits{16: FullRange}.Validate(), &ic)
}
