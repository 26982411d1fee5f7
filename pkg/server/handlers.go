package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gwillem/humanoid/pkg/gesture"
	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

// Speeds in the API are seconds per step.
const maxSpeedSeconds = 1.0

type moveRequest struct {
	Servo *int     `json:"servo"`
	Joint string   `json:"joint"`
	Angle *float64 `json:"angle"`
	Speed *float64 `json:"speed"`
}

type servoInfo struct {
	Channel servo.Channel   `json:"channel"`
	Joint   robot.JointName `json:"joint,omitempty"`
	Angle   float64         `json:"angle"`
	Driven  bool            `json:"driven"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
}

func (s *Server) info(ch servo.Channel) servoInfo {
	joint, _ := robot.JointFor(ch)
	lim := s.bot.Limit(ch)
	angle, driven := s.bot.Driven(ch)
	if !driven {
		angle = servo.DefaultAngle
	}
	return servoInfo{
		Channel: ch,
		Joint:   joint,
		Angle:   angle,
		Driven:  driven,
		Min:     lim.Min,
		Max:     lim.Max,
	}
}

// Initialize drives every servo to neutral and unlocks the move routes.
func (s *Server) Initialize(ctx context.Context) error {
	if err := s.bot.Initialize(ctx); err != nil {
		return err
	}
	s.initialized.Store(true)
	return nil
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := s.Initialize(r.Context()); err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, "Robot initialized", nil)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var ch servo.Channel
	switch {
	case req.Servo != nil:
		ch = servo.Channel(*req.Servo)
	case req.Joint != "":
		var err error
		if ch, err = robot.ParseChannel(req.Joint); err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		s.fail(w, http.StatusBadRequest, "missing servo or joint")
		return
	}
	if req.Angle == nil {
		s.fail(w, http.StatusBadRequest, "missing angle")
		return
	}

	speed := s.bot.Config.Speed()
	if req.Speed != nil {
		if *req.Speed < 0 || *req.Speed > maxSpeedSeconds {
			s.fail(w, http.StatusBadRequest, fmt.Sprintf("speed must be between 0 and %v seconds", maxSpeedSeconds))
			return
		}
		speed = time.Duration(*req.Speed * float64(time.Second))
	}

	if err := s.bot.SetPosition(r.Context(), ch, *req.Angle, speed); err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, fmt.Sprintf("Servo %d moved", ch), s.info(ch))
}

func (s *Server) handleGetServo(w http.ResponseWriter, r *http.Request) {
	ch, err := robot.ParseChannel(r.PathValue("id"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ok(w, "", s.info(ch))
}

func (s *Server) handleGetServos(w http.ResponseWriter, r *http.Request) {
	infos := make([]servoInfo, 0, len(robot.AllJoints()))
	for i := range robot.AllJoints() {
		infos = append(infos, s.info(servo.Channel(i)))
	}
	s.ok(w, "", infos)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	ch, err := robot.ParseChannel(r.PathValue("id"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.bot.Release(ch); err != nil {
		s.failErr(w, err)
		return
	}
	s.ok(w, fmt.Sprintf("Servo %d released", ch), nil)
}

type walkRequest struct {
	Steps int `json:"steps"`
}

func (s *Server) gestureHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		steps := 1
		if name == "walk" {
			var req walkRequest
			// an empty body, chunked or not, means one step
			err := json.NewDecoder(r.Body).Decode(&req)
			if err != nil && !errors.Is(err, io.EOF) {
				s.fail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
				return
			}
			if req.Steps != 0 {
				steps = req.Steps
			}
		}

		g, err := gesture.Lookup(name, s.bot.NeutralPositions(), steps)
		if err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return
		}

		if !s.gestureMu.TryLock() {
			s.fail(w, http.StatusConflict, "robot is busy with another gesture")
			return
		}
		defer s.gestureMu.Unlock()

		if err := s.player.Play(r.Context(), g); err != nil {
			s.failErr(w, err)
			return
		}
		s.ok(w, fmt.Sprintf("Gesture %s complete", g.Name), nil)
	}
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.initialized.Load() {
		if err := s.bot.Neutral(r.Context(), s.bot.Config.Speed()); err != nil {
			s.failErr(w, err)
			return
		}
	}
	if err := s.bot.ReleaseAll(); err != nil {
		s.failErr(w, err)
		return
	}
	s.initialized.Store(false)
	s.ok(w, "Robot shut down", nil)
}

func (s *Server) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	neutral := make(map[robot.JointName]float64, len(robot.AllJoints()))
	for ch, angle := range s.bot.NeutralPositions() {
		if name, ok := robot.JointFor(ch); ok {
			neutral[name] = angle
		}
	}
	s.ok(w, "", neutral)
}

func (s *Server) handleRobotInfo(w http.ResponseWriter, r *http.Request) {
	s.ok(w, "", map[string]any{
		"initialized": s.initialized.Load(),
		"simulated":   s.bot.Config.Simulate,
		"joints":      robot.AllJoints(),
		"gestures":    gesture.Names(),
		"speed_ms":    s.bot.Config.SpeedMs,
	})
}
