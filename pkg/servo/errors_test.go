package servo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestErrorKinds(t *testing.T) {
	busErr := errors.New("remote I/O error")
	hw1 := &HardwareWriteError{Channel: 5, LastAngle: 100, Err: busErr}
	hw2 := &HardwareWriteError{Channel: 7, LastAngle: 80, Err: busErr}

	tests := []struct {
		name      string
		err       error
		retryable bool
		caller    bool
		failed    []Channel
	}{
		{"nil", nil, false, false, nil},
		{"invalid channel", &InvalidChannelError{Channel: 16}, false, true, nil},
		{"invalid angle", fmt.Errorf("move: %w", &InvalidAngleError{Channel: 2}), false, true, nil},
		{"hardware", hw1, true, false, []Channel{5}},
		{"combined", multierr.Combine(hw1, hw2), true, false, []Channel{5, 7}},
		{"wrapped combined", fmt.Errorf("step 2: %w", multierr.Combine(hw1, hw2)), true, false, []Channel{5, 7}},
		{"cancelled", context.Canceled, false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.caller, IsCallerError(tt.err))
			assert.Equal(t, tt.failed, FailedChannels(tt.err))
		})
	}
}

func TestHardwareWriteError_Unwrap(t *testing.T) {
	busErr := errors.New("nack")
	err := &HardwareWriteError{Channel: 3, LastAngle: 91, Err: busErr}
	assert.ErrorIs(t, err, busErr)
	assert.Equal(t, "write channel 3 (last angle 91.0): nack", err.Error())
}
