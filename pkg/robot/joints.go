// Package robot describes the humanoid: its joints, their channels and
// limits, calibration and configuration.
package robot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gwillem/humanoid/pkg/servo"
)

// JointName identifies a joint of the robot.
type JointName string

// Joint names, in channel order.
const (
	Head          JointName = "head"
	ShoulderRight JointName = "shoulder_right"
	ShoulderLeft  JointName = "shoulder_left"
	ElbowRight    JointName = "elbow_right"
	ElbowLeft     JointName = "elbow_left"
	HipRight      JointName = "hip_right"
	HipLeft       JointName = "hip_left"
	KneeRight     JointName = "knee_right"
	KneeLeft      JointName = "knee_left"
	AnkleRight    JointName = "ankle_right"
	AnkleLeft     JointName = "ankle_left"
	WristRight    JointName = "wrist_right"
	WristLeft     JointName = "wrist_left"
)

// AllJoints returns all joint names in order (matching channels 0-12).
func AllJoints() []JointName {
	return []JointName{
		Head,
		ShoulderRight,
		ShoulderLeft,
		ElbowRight,
		ElbowLeft,
		HipRight,
		HipLeft,
		KneeRight,
		KneeLeft,
		AnkleRight,
		AnkleLeft,
		WristRight,
		WristLeft,
	}
}

// Channel returns the PWM channel wired to the joint.
func (j JointName) Channel() (servo.Channel, bool) {
	for i, name := range AllJoints() {
		if name == j {
			return servo.Channel(i), true
		}
	}
	return 0, false
}

// JointFor returns the joint on a channel, if any.
func JointFor(ch servo.Channel) (JointName, bool) {
	joints := AllJoints()
	if ch < 0 || int(ch) >= len(joints) {
		return "", false
	}
	return joints[ch], true
}

// ParseJoint accepts a joint name in any case ("HIP_LEFT", "hip-left").
func ParseJoint(s string) (JointName, error) {
	name := JointName(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := name.Channel(); !ok {
		return "", fmt.Errorf("unknown joint %q", s)
	}
	return name, nil
}

// ParseChannel accepts either a channel number or a joint name.
func ParseChannel(s string) (servo.Channel, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		ch := servo.Channel(n)
		if !ch.Valid() {
			return 0, &servo.InvalidChannelError{Channel: ch}
		}
		return ch, nil
	}
	joint, err := ParseJoint(s)
	if err != nil {
		return 0, err
	}
	ch, _ := joint.Channel()
	return ch, nil
}

// DefaultLimits returns the safe travel of each joint.
func DefaultLimits() map[JointName]servo.Limit {
	return map[JointName]servo.Limit{
		Head:          {Min: 45, Max: 135},
		ShoulderRight: {Min: 30, Max: 150},
		ShoulderLeft:  {Min: 30, Max: 150},
		ElbowRight:    {Min: 60, Max: 180},
		ElbowLeft:     {Min: 0, Max: 120},
		HipRight:      {Min: 60, Max: 120},
		HipLeft:       {Min: 60, Max: 120},
		KneeRight:     {Min: 60, Max: 120},
		KneeLeft:      {Min: 60, Max: 120},
		AnkleRight:    {Min: 60, Max: 120},
		AnkleLeft:     {Min: 60, Max: 120},
		WristRight:    {Min: 30, Max: 150},
		WristLeft:     {Min: 30, Max: 150},
	}
}
