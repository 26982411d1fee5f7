// Package gesture plays fixed sequences of batch servo moves.
package gesture

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gwillem/humanoid/pkg/servo"
)

// Mover executes one batch move. *servo.Controller implements it.
type Mover interface {
	SetPositions(ctx context.Context, targets map[servo.Channel]float64, speed time.Duration) error
}

// Step is one batch of targets, followed by an optional pause.
type Step struct {
	Targets map[servo.Channel]float64
	Speed   time.Duration // 0 uses the player's speed
	Pause   time.Duration
}

// Gesture is an ordered list of steps.
type Gesture struct {
	Name  string
	Steps []Step
}

// Repeat returns g with its steps played n times.
func (g Gesture) Repeat(n int) Gesture {
	steps := make([]Step, 0, len(g.Steps)*max(n, 0))
	for range n {
		steps = append(steps, g.Steps...)
	}
	return Gesture{Name: g.Name, Steps: steps}
}

// Then appends the steps of other gestures.
func (g Gesture) Then(others ...Gesture) Gesture {
	steps := append([]Step(nil), g.Steps...)
	for _, o := range others {
		steps = append(steps, o.Steps...)
	}
	return Gesture{Name: g.Name, Steps: steps}
}

// StepError reports which step of a gesture failed.
type StepError struct {
	Gesture string
	Index   int
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("gesture %s step %d: %v", e.Gesture, e.Index+1, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Player plays gestures through a Mover.
type Player struct {
	mover Mover
	speed time.Duration
	log   logrus.FieldLogger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPlayer creates a player. speed is used for steps without their own.
func NewPlayer(m Mover, speed time.Duration, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		mover: m,
		speed: speed,
		log:   log,
		sleep: pause,
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play runs every step in order. It stops at the first failing step and
// leaves servos wherever they got to.
func (p *Player) Play(ctx context.Context, g Gesture) error {
	log := p.log.WithField("gesture", g.Name)
	log.WithField("steps", len(g.Steps)).Info("playing gesture")
	start := time.Now()

	for i, step := range g.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Gesture: g.Name, Index: i, Err: err}
		}
		speed := step.Speed
		if speed == 0 {
			speed = p.speed
		}
		if err := p.mover.SetPositions(ctx, step.Targets, speed); err != nil {
			log.WithError(err).WithField("step", i+1).Error("gesture step failed")
			return &StepError{Gesture: g.Name, Index: i, Err: err}
		}
		if err := p.sleep(ctx, step.Pause); err != nil {
			return &StepError{Gesture: g.Name, Index: i, Err: err}
		}
	}

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("gesture complete")
	return nil
}
