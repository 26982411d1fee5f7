package servo

import (
	"fmt"
	"math"
)

// Limit is the allowed travel of one servo in degrees.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FullRange is used for channels without a configured limit.
var FullRange = Limit{Min: 0, Max: MaxAngle}

// Validate checks 0 <= Min <= Max <= 180.
func (l Limit) Validate() error {
	if l.Min < 0 || l.Max > MaxAngle || l.Min > l.Max {
		return fmt.Errorf("invalid limit %.1f-%.1f", l.Min, l.Max)
	}
	return nil
}

// Clamp pulls angle into the limit.
func (l Limit) Clamp(angle float64) float64 {
	return math.Max(l.Min, math.Min(l.Max, angle))
}

// Limits holds per-channel limits.
type Limits map[Channel]Limit

// For returns the limit of a channel, falling back to FullRange.
func (l Limits) For(ch Channel) Limit {
	if lim, ok := l[ch]; ok {
		return lim
	}
	return FullRange
}

// Clamp returns the safe angle for a channel.
func (l Limits) Clamp(ch Channel, angle float64) float64 {
	return l.For(ch).Clamp(angle)
}

// Validate checks every limit in the table.
func (l Limits) Validate() error {
	for ch, lim := range l {
		if !ch.Valid() {
			return &InvalidChannelError{Channel: ch}
		}
		if err := lim.Validate(); err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	return nil
}
