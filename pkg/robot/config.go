package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gwillem/humanoid/pkg/servo"
)

const DefaultConfigFile = "humanoid.json"

// Config holds the robot configuration
type Config struct {
	I2C             I2CConfig                 `json:"i2c"`
	Pulse           servo.PulseRange          `json:"pulse"`
	Limits          map[JointName]servo.Limit `json:"limits,omitempty"`
	CalibrationFile string                    `json:"calibration_file,omitempty"`
	SpeedMs         float64                   `json:"speed_ms"`
	Simulate        bool                      `json:"simulate"`
}

// I2CConfig locates the PCA9685
type I2CConfig struct {
	Bus         string `json:"bus"` // periph bus name, "" for the first one
	Address     uint16 `json:"address"`
	FrequencyHz int    `json:"frequency_hz"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		I2C: I2CConfig{
			Address:     0x40,
			FrequencyHz: 50,
		},
		Pulse:           servo.DefaultPulseRange,
		Limits:          DefaultLimits(),
		CalibrationFile: DefaultCalibrationFile,
		SpeedMs:         float64(servo.DefaultSpeed / time.Millisecond),
	}
}

// Speed returns the step delay.
func (c *Config) Speed() time.Duration {
	return time.Duration(c.SpeedMs * float64(time.Millisecond))
}

// ChannelLimits converts joint limits into servo limits.
func (c *Config) ChannelLimits() (servo.Limits, error) {
	limits := make(servo.Limits, len(c.Limits))
	for name, lim := range c.Limits {
		ch, ok := name.Channel()
		if !ok {
			return nil, fmt.Errorf("limits: unknown joint %q", name)
		}
		limits[ch] = lim
	}
	return limits, nil
}

// Validate checks the configuration for values the controller would reject.
func (c *Config) Validate() error {
	if err := c.Pulse.Validate(); err != nil {
		return err
	}
	limits, err := c.ChannelLimits()
	if err != nil {
		return err
	}
	if err := limits.Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if c.SpeedMs < 0 {
		return fmt.Errorf("negative speed %vms", c.SpeedMs)
	}
	if c.I2C.FrequencyHz <= 0 {
		return fmt.Errorf("invalid PWM frequency %d Hz", c.I2C.FrequencyHz)
	}
	return nil
}

// LoadCalibration loads the configured calibration file. A missing file
// yields an empty calibration.
func (c *Config) LoadCalibration() (Calibration, error) {
	if c.CalibrationFile == "" {
		return Calibration{}, nil
	}
	cal, err := LoadCalibration(c.CalibrationFile)
	if errors.Is(err, os.ErrNotExist) {
		return Calibration{}, nil
	}
	return cal, err
}

// LoadConfig reads DefaultConfigFile, or returns DefaultConfig when the
// file does not exist.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigFrom(DefaultConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadConfigFrom loads configuration from a specific file. Fields missing
// from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the configuration as indented JSON.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
