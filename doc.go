// Package humanoid drives a 13 servo biped robot through a PCA9685 PWM
// board.
//
// Every move is interpolated one degree per step, clamped to per-joint
// limits, and serialized through a single controller so concurrent callers
// never interleave writes.
//
// # Installation
//
//	go install github.com/gwillem/humanoid/cmd/humanoid@latest
//
// # Usage
//
// Calibrate the neutral pose first:
//
//	humanoid calibrate
//
// Then stand, walk or dance, or serve the HTTP API:
//
//	humanoid stand
//	humanoid walk --steps 3
//	humanoid serve --addr :5000
//
// Add --simulate to any command to run without hardware.
//
// # Packages
//
//   - cmd/humanoid: CLI with gesture, move, calibrate, monitor and serve commands
//   - pkg/servo: interpolating servo controller, limits, pulse mapping and errors
//   - pkg/robot: joint names, calibration, configuration
//   - pkg/driver: PCA9685 PWM sink over periph.io
//   - pkg/gesture: gesture sequences and player
//   - pkg/server: HTTP API and websocket position stream
package humanoid
