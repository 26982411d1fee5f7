package servo

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// InvalidChannelError is returned for a channel outside 0-15.
type InvalidChannelError struct {
	Channel Channel
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("invalid channel %d (must be 0-%d)", e.Channel, NumChannels-1)
}

// InvalidAngleError is returned for angles that cannot be clamped (NaN, ±Inf).
type InvalidAngleError struct {
	Channel Channel
	Angle   float64
}

func (e *InvalidAngleError) Error() string {
	return fmt.Sprintf("invalid angle %v for channel %d", e.Angle, e.Channel)
}

// HardwareWriteError reports a failed bus write. LastAngle is the last angle
// successfully written to the channel, so a retry can resume from there.
type HardwareWriteError struct {
	Channel   Channel
	LastAngle float64
	Err       error
}

func (e *HardwareWriteError) Error() string {
	return fmt.Sprintf("write channel %d (last angle %.1f): %v", e.Channel, e.LastAngle, e.Err)
}

func (e *HardwareWriteError) Unwrap() error { return e.Err }

// Retryable is always true for bus failures.
func (e *HardwareWriteError) Retryable() bool { return true }

// IsRetryable reports whether err, or any error combined into it, is a
// retryable hardware failure.
func IsRetryable(err error) bool {
	for _, e := range multierr.Errors(err) {
		var r interface{ Retryable() bool }
		if errors.As(e, &r) && r.Retryable() {
			return true
		}
	}
	return false
}

// FailedChannels lists the channels of every HardwareWriteError in err,
// including ones combined below a wrapping error.
func FailedChannels(err error) []Channel {
	var out []Channel
	walk(err, func(e error) {
		if hw, ok := e.(*HardwareWriteError); ok {
			out = append(out, hw.Channel)
		}
	})
	return out
}

func walk(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, fn)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), fn)
	}
}

// IsCallerError reports whether err stems from invalid input.
func IsCallerError(err error) bool {
	var ic *InvalidChannelError
	var ia *InvalidAngleError
	return errors.As(err, &ic) || errors.As(err, &ia)
}
