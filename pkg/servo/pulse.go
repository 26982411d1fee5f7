// Package servo drives hobby servos on a PWM controller: angle-to-pulse
// mapping, per-channel safety limits, servo state and paced batch moves.
package servo

import (
	"fmt"
	"math"
)

// Channel identifies a PWM output on the servo driver.
type Channel int

// NumChannels is the number of outputs on a PCA9685.
const NumChannels = 16

// MaxAngle is the upper end of the servo travel in degrees.
const MaxAngle = 180.0

// Valid reports whether the channel exists on the driver.
func (c Channel) Valid() bool {
	return c >= 0 && c < NumChannels
}

// PulseRange is the calibrated PWM count range for 0° and 180° on a
// 4096-step, 50 Hz cycle.
type PulseRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultPulseRange maps 0-180° onto 150-600 counts (about 0.7 ms to 2.9 ms).
var DefaultPulseRange = PulseRange{Min: 150, Max: 600}

// AngleToPulse converts an angle in degrees to a PWM off-count.
func (p PulseRange) AngleToPulse(angle float64) uint16 {
	return uint16(math.Round(float64(p.Min) + angle/MaxAngle*float64(p.Max-p.Min)))
}

// Validate checks the range fits a 12-bit counter and is ordered.
func (p PulseRange) Validate() error {
	if p.Min < 0 || p.Max > 4095 || p.Min >= p.Max {
		return fmt.Errorf("invalid pulse range %d-%d", p.Min, p.Max)
	}
	return nil
}
