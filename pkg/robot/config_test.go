package robot

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/humanoid/pkg/servo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint16(0x40), cfg.I2C.Address)
	assert.Equal(t, 50, cfg.I2C.FrequencyHz)
	assert.Equal(t, servo.DefaultSpeed, cfg.Speed())
	assert.Equal(t, servo.DefaultPulseRange, cfg.Pulse)
}

func TestLoadConfigFrom_MergesDefaults(t *testing.T) {
	path := writeFile(t, "humanoid.json", `{
		"pulse": {"min": 205, "max": 410},
		"limits": {"head": {"min": 60, "max": 120}},
		"speed_ms": 5,
		"simulate": true
	}`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, servo.PulseRange{Min: 205, Max: 410}, cfg.Pulse)
	assert.Equal(t, servo.Limit{Min: 60, Max: 120}, cfg.Limits[Head])
	assert.Equal(t, servo.Limit{Min: 0, Max: 120}, cfg.Limits[ElbowLeft], "untouched default")
	assert.Equal(t, 5*time.Millisecond, cfg.Speed())
	assert.True(t, cfg.Simulate)
	assert.Equal(t, uint16(0x40), cfg.I2C.Address)
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"inverted limit", `{"limits": {"head": {"min": 120, "max": 60}}}`},
		{"unknown joint", `{"limits": {"tail": {"min": 0, "max": 10}}}`},
		{"bad pulse", `{"pulse": {"min": 600, "max": 150}}`},
		{"negative speed", `{"speed_ms": -1}`},
		{"zero frequency", `{"i2c": {"frequency_hz": 0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(writeFile(t, "humanoid.json", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "humanoid.json")
	cfg := DefaultConfig()
	cfg.Simulate = true
	cfg.Limits[KneeLeft] = servo.Limit{Min: 70, Max: 110}

	require.NoError(t, cfg.SaveTo(path))
	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_ChannelLimits(t *testing.T) {
	limits, err := DefaultConfig().ChannelLimits()
	require.NoError(t, err)
	assert.Equal(t, servo.Limit{Min: 45, Max: 135}, limits[0])
	assert.Equal(t, servo.Limit{Min: 60, Max: 180}, limits[3])
}

func TestNew_SeedsFromCalibration(t *testing.T) {
	dir := t.TempDir()
	calPath := filepath.Join(dir, "cal.json")
	require.NoError(t, Calibration{HipRight: 100, Head: 30}.Save(calPath))

	cfg := DefaultConfig()
	cfg.CalibrationFile = calPath

	log := logrus.New()
	log.SetOutput(io.Discard)

	h, err := New(cfg, servo.NewSimulatedSink(), log)
	require.NoError(t, err)

	positions := h.JointPositions()
	assert.Equal(t, 100.0, positions[HipRight])
	assert.Equal(t, 45.0, positions[Head], "clamped to head limit")
	assert.Equal(t, 90.0, positions[KneeLeft])
	assert.Len(t, positions, len(AllJoints()))
}

func TestNew_MissingCalibrationFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationFile = filepath.Join(t.TempDir(), "missing.json")

	log := logrus.New()
	log.SetOutput(io.Discard)

	h, err := New(cfg, servo.NewSimulatedSink(), log)
	require.NoError(t, err)
	assert.Empty(t, h.Calibration)
	assert.Equal(t, servo.DefaultAngle, h.GetPosition(0))
}

func TestOpen_Simulated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulate = true
	cfg.CalibrationFile = ""

	log := logrus.New()
	log.SetOutput(io.Discard)

	h, err := Open(cfg, log)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.SetPosition(t.Context(), 5, 100, 0))
	assert.Equal(t, 100.0, h.GetPosition(5))
}

type detachSink struct {
	*servo.SimulatedSink
	detached bool
}

func (s *detachSink) Detach() error {
	s.detached = true
	return nil
}

func TestHumanoid_Detach(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CalibrationFile = ""

	log := logrus.New()
	log.SetOutput(io.Discard)

	sink := &detachSink{SimulatedSink: servo.NewSimulatedSink()}
	h, err := New(cfg, sink, log)
	require.NoError(t, err)

	require.NoError(t, h.SetPosition(t.Context(), 5, 100, 0))
	require.NoError(t, h.Detach())
	assert.True(t, sink.detached)

	for _, w := range sink.Writes() {
		assert.NotZero(t, w.Off, "no release on detach")
	}
}

func TestLoadConfig_DefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg, "missing file gives defaults")

	cfg.SpeedMs = 25
	require.NoError(t, cfg.SaveTo(DefaultConfigFile))
	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25.0, loaded.SpeedMs)

	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte(`{"pulse": {"min": 600, "max": 150}}`), 0644))
	_, err = LoadConfig()
	assert.Error(t, err, "invalid file is not masked by defaults")
}
