package main

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/humanoid/pkg/gesture"
	"github.com/gwillem/humanoid/pkg/robot"
	"github.com/gwillem/humanoid/pkg/servo"
)

func TestMonitorModel(t *testing.T) {
	m := newMonitorModel("dance", nil, nil, nil, nil)

	next, cmd := m.Update(updateMsg{Positions: map[servo.Channel]float64{0: 90, 5: 100}, Timestamp: time.Now()})
	m = next.(monitorModel)
	assert.NotNil(t, cmd, "keeps listening for updates")
	assert.Equal(t, 100.0, m.lastPositions[5])
	assert.Contains(t, m.View(), "playing")

	next, _ = m.Update(logMsg("WARN servo write failed"))
	m = next.(monitorModel)
	assert.Equal(t, []string{"WARN servo write failed"}, m.logs)

	next, _ = m.Update(doneMsg{errors.New("gesture dance step 3: boom")})
	m = next.(monitorModel)
	assert.True(t, m.finished)
	assert.Contains(t, m.View(), "failed")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, "Monitor stopped.\n", next.View())
}

func TestMonitorModel_KeepsLastLogs(t *testing.T) {
	m := newMonitorModel("walk", nil, nil, nil, nil)
	for i := range maxLogs + 2 {
		m.addLog(string(rune('a' + i)))
	}
	assert.Equal(t, []string{"c", "d", "e", "f", "g"}, m.logs)
}

func TestMonitorModel_ChartsGestureJoints(t *testing.T) {
	g, err := gesture.Lookup("step", nil, 1)
	require.NoError(t, err)
	joints := gestureJoints(g)
	require.NotEmpty(t, joints)
	assert.NotContains(t, joints, robot.Head, "a step leaves the head alone")

	m := newMonitorModel(g.Name, joints, nil, nil, nil)
	assert.Equal(t, joints, m.joints)
	legend := renderLegend(m.joints)
	for _, joint := range joints {
		assert.Contains(t, legend, string(joint))
	}
	assert.NotContains(t, legend, string(robot.Head))

	assert.Equal(t, robot.AllJoints(), newMonitorModel("x", nil, nil, nil, nil).joints)
}

func TestLogHook(t *testing.T) {
	l := logrus.New()
	hook := newLogHook()
	l.AddHook(hook)
	l.SetOutput(io.Discard)

	l.WithError(errors.New("remote I/O error")).Warn("servo write failed")

	select {
	case msg := <-hook.ch:
		assert.Equal(t, "WARN servo write failed: remote I/O error", msg)
	default:
		require.Fail(t, "no log forwarded")
	}
}
