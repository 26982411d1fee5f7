package main

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/humanoid/pkg/robot"
)

func testBot(t *testing.T) *robot.Humanoid {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	cfg := robot.DefaultConfig()
	cfg.CalibrationFile = ""
	cfg.Simulate = true
	bot, err := robot.Open(cfg, l)
	require.NoError(t, err)
	t.Cleanup(func() { bot.Close() })
	return bot
}

func press(m calibrationModel, keys ...string) calibrationModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(calibrationModel)
	}
	return m
}

func TestCalibrationModel_Adjust(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want float64
	}{
		{"plus five", []string{"+"}, 95},
		{"equals is plus", []string{"="}, 95},
		{"minus five", []string{"-", "-"}, 80},
		{"digit", []string{"7"}, 97},
		{"fine", []string{"f", "3"}, 90.3},
		{"fine is one shot", []string{"f", "3", "3"}, 93.3},
		{"clamped to limit", []string{"+", "+", "+", "+", "+", "+", "+", "+", "+", "+"}, 135},
		{"reset", []string{"+", "r"}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := testBot(t)
			m := press(newCalibrationModel(bot), tt.keys...)
			assert.InDelta(t, tt.want, m.angles[robot.Head], 1e-9)
		})
	}
}

func TestCalibrationModel_DrivesServo(t *testing.T) {
	bot := testBot(t)
	press(newCalibrationModel(bot), "f", "4", "+")
	assert.Equal(t, 95.4, bot.GetPosition(0))

	// sub half-degree moves are not sent
	m := press(newCalibrationModel(bot), "f", "2")
	assert.Equal(t, 95.4, bot.GetPosition(0))
	assert.Contains(t, m.status, "held at 95.4°")
	assert.Contains(t, m.View(), "below the move threshold")

	m = press(m, "f", "5")
	assert.Equal(t, 96.1, bot.GetPosition(0))
	assert.Empty(t, m.status)
}

func TestCalibrationModel_SelectAndSave(t *testing.T) {
	bot := testBot(t)
	m := newCalibrationModel(bot)

	m = press(m, "up")
	assert.Equal(t, robot.WristLeft, m.joints[m.selected])
	m = press(m, "down", "down", "-", "s")
	assert.Equal(t, robot.ShoulderRight, m.joints[m.selected])
	assert.True(t, m.saved[robot.ShoulderRight])

	m = press(m, "l")
	assert.Contains(t, m.status, "30 to 150")

	cal := m.calibration(robot.Calibration{robot.Head: 88})
	assert.Equal(t, robot.Calibration{robot.Head: 88, robot.ShoulderRight: 85}, cal)
}

func TestCalibrationModel_Quit(t *testing.T) {
	m := newCalibrationModel(testBot(t))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(calibrationModel).quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.View())
}
