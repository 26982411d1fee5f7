package robot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/gwillem/humanoid/pkg/servo"
)

const DefaultCalibrationFile = "servo_calibration.json"

// Calibration holds the neutral angle of each calibrated joint.
type Calibration map[JointName]float64

// LoadCalibration loads calibration data from a JSON file mapping joint
// names (or channel numbers) to neutral angles.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	// Parse into a map with string keys first
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for key, angle := range raw {
		ch, err := ParseChannel(key)
		if err != nil {
			return nil, fmt.Errorf("calibration key: %w", err)
		}
		name, ok := JointFor(ch)
		if !ok {
			return nil, fmt.Errorf("calibration key %q: no joint on channel %d", key, ch)
		}
		if math.IsNaN(angle) || angle < 0 || angle > servo.MaxAngle {
			return nil, fmt.Errorf("calibration %s: angle %v out of range", name, angle)
		}
		cal[name] = angle
	}

	return cal, nil
}

// Save writes the calibration as indented JSON.
func (c Calibration) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Neutral returns the neutral angle of every joint by channel; joints
// without calibration stay at servo.DefaultAngle.
func (c Calibration) Neutral() map[servo.Channel]float64 {
	out := make(map[servo.Channel]float64, len(AllJoints()))
	for i, name := range AllJoints() {
		angle, ok := c[name]
		if !ok {
			angle = servo.DefaultAngle
		}
		out[servo.Channel(i)] = angle
	}
	return out
}

// FromPositions builds a calibration from controller positions, keeping
// only channels wired to a joint.
func FromPositions(positions map[servo.Channel]float64) Calibration {
	cal := make(Calibration, len(positions))
	for ch, angle := range positions {
		if name, ok := JointFor(ch); ok {
			cal[name] = math.Round(angle*10) / 10
		}
	}
	return cal
}
