package gesture

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

type pose map[robot.JointName]float64

func (p pose) targets() map[servo.Channel]float64 {
	out := make(map[servo.Channel]float64, len(p))
	for name, angle := range p {
		if ch, ok := name.Channel(); ok {
			out[ch] = angle
		}
	}
	return out
}

func step(p pose, pause time.Duration) Step {
	return Step{Targets: p.targets(), Pause: pause}
}

// Neutral moves every joint to its calibrated neutral angle.
func Neutral(neutral map[servo.Channel]float64) Gesture {
	return Gesture{
		Name:  "neutral",
		Steps: []Step{{Targets: maps.Clone(neutral)}},
	}
}

// Stand raises the robot from a crouch: bend knees, lean forward,
// straighten knees, recentre hips.
func Stand(neutral map[servo.Channel]float64) Gesture {
	return Neutral(neutral).Then(Gesture{Steps: []Step{
		step(pose{robot.KneeRight: 120, robot.KneeLeft: 120}, 500*time.Millisecond),
		step(pose{robot.HipRight: 110, robot.HipLeft: 110}, 500*time.Millisecond),
		step(pose{robot.KneeRight: 90, robot.KneeLeft: 90}, 500*time.Millisecond),
		step(pose{robot.HipRight: 90, robot.HipLeft: 90}, 0),
	}}).named("stand")
}

// StepForward takes one step, left leg first.
func StepForward() Gesture {
	const p = 500 * time.Millisecond
	return Gesture{
		Name: "step",
		Steps: []Step{
			step(pose{robot.HipRight: 100, robot.HipLeft: 100}, p), // weight onto right leg
			step(pose{robot.KneeLeft: 120}, p),
			step(pose{robot.HipLeft: 70}, p),
			step(pose{robot.KneeLeft: 90}, p),
			step(pose{robot.HipRight: 80, robot.HipLeft: 80}, p), // weight onto left leg
			step(pose{robot.KneeRight: 120}, p),
			step(pose{robot.HipRight: 110}, p),
			step(pose{robot.KneeRight: 90}, p),
			step(pose{robot.HipRight: 90, robot.HipLeft: 90}, 0),
		},
	}
}

// Walk takes n steps forward.
func Walk(n int) Gesture {
	return StepForward().Repeat(n).named("walk")
}

var danceReady = pose{
	robot.Head:          90,
	robot.ShoulderRight: 60,
	robot.ShoulderLeft:  120,
	robot.ElbowRight:    120,
	robot.ElbowLeft:     60,
}

// Dance rocks the hips, waves the arms, bobs the head and twists.
func Dance() Gesture {
	rock := Gesture{Steps: []Step{
		step(pose{robot.HipRight: 70, robot.HipLeft: 110, robot.ShoulderRight: 80, robot.ShoulderLeft: 100}, 400*time.Millisecond),
		step(pose{robot.HipRight: 110, robot.HipLeft: 70, robot.ShoulderRight: 40, robot.ShoulderLeft: 140}, 400*time.Millisecond),
	}}
	wave := Gesture{Steps: []Step{
		step(pose{robot.Head: 70, robot.ElbowRight: 150, robot.ElbowLeft: 30}, 300*time.Millisecond),
		step(pose{robot.Head: 110, robot.ElbowRight: 90, robot.ElbowLeft: 90}, 300*time.Millisecond),
	}}
	twist := Gesture{Steps: []Step{
		step(pose{robot.HipRight: 60, robot.HipLeft: 120, robot.ShoulderRight: 40, robot.ShoulderLeft: 140, robot.Head: 60}, 500*time.Millisecond),
		step(pose{robot.HipRight: 120, robot.HipLeft: 60, robot.ShoulderRight: 140, robot.ShoulderLeft: 40, robot.Head: 120}, 500*time.Millisecond),
	}}

	final := maps.Clone(danceReady)
	final[robot.HipRight] = 90
	final[robot.HipLeft] = 90

	return Gesture{Steps: []Step{step(danceReady, time.Second)}}.
		Then(rock.Repeat(3), wave.Repeat(2), twist.Repeat(2)).
		Then(Gesture{Steps: []Step{step(final, time.Second)}}).
		named("dance")
}

func (g Gesture) named(name string) Gesture {
	g.Name = name
	return g
}

// Names lists the built-in gestures.
func Names() []string {
	return []string{"dance", "neutral", "stand", "step", "walk"}
}

// MaxWalkSteps bounds the steps of a single walk.
const MaxWalkSteps = 100

// Lookup returns a built-in gesture by name. walkSteps is only used by
// "walk" and must be within 1..MaxWalkSteps.
func Lookup(name string, neutral map[servo.Channel]float64, walkSteps int) (Gesture, error) {
	switch name {
	case "neutral":
		return Neutral(neutral), nil
	case "stand":
		return Stand(neutral), nil
	case "step":
		return StepForward(), nil
	case "walk":
		if walkSteps < 1 || walkSteps > MaxWalkSteps {
			return Gesture{}, fmt.Errorf("walk steps must be 1-%d, got %d", MaxWalkSteps, walkSteps)
		}
		return Walk(walkSteps), nil
	case "dance":
		return Dance(), nil
	}
	return Gesture{}, fmt.Errorf("unknown gesture %q (have %v)", name, Names())
}

// Joints returns the channels a gesture touches, sorted.
func (g Gesture) Joints() []servo.Channel {
	seen := make(map[servo.Channel]bool)
	for _, s := range g.Steps {
		for ch := range s.Targets {
			seen[ch] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
