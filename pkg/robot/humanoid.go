package robot

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gwillem/humanoid/pkg/driver"
	"github.com/gwillem/humanoid/pkg/servo"
)

// Humanoid is the robot's servo controller together with the configuration
// and calibration it was built from.
type Humanoid struct {
	*servo.Controller
	Config      *Config
	Calibration Calibration

	sink servo.PwmSink
}

// Open connects to the PCA9685 described by cfg, or to a simulated sink
// when cfg.Simulate is set, and seeds servo state from the calibration.
func Open(cfg *Config, log logrus.FieldLogger) (*Humanoid, error) {
	var sink servo.PwmSink
	if cfg.Simulate {
		log.Info("using simulated PWM sink")
		sink = servo.NewSimulatedSink()
	} else {
		dev, err := driver.Open(driver.Config{
			Bus:         cfg.I2C.Bus,
			Address:     cfg.I2C.Address,
			FrequencyHz: cfg.I2C.FrequencyHz,
		})
		if err != nil {
			return nil, fmt.Errorf("open PCA9685: %w", err)
		}
		sink = dev
	}

	h, err := New(cfg, sink, log)
	if err != nil {
		if closer, ok := sink.(interface{ Close() error }); ok {
			closer.Close()
		}
		return nil, err
	}
	return h, nil
}

// New builds a Humanoid on an existing sink.
func New(cfg *Config, sink servo.PwmSink, log logrus.FieldLogger) (*Humanoid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	limits, err := cfg.ChannelLimits()
	if err != nil {
		return nil, err
	}

	cal, err := cfg.LoadCalibration()
	if err != nil {
		return nil, err
	}
	if len(cal) > 0 {
		log.WithField("joints", len(cal)).Infof("loaded calibration from %s", cfg.CalibrationFile)
	}

	ctrl, err := servo.NewController(servo.Config{
		Sink:    sink,
		Pulse:   cfg.Pulse,
		Limits:  limits,
		Neutral: cal.Neutral(),
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	return &Humanoid{
		Controller:  ctrl,
		Config:      cfg,
		Calibration: cal,
		sink:        sink,
	}, nil
}

// Detach drops the hardware connection without releasing any servo. Use
// it instead of Close when the robot should keep its pose.
func (h *Humanoid) Detach() error {
	if d, ok := h.sink.(interface{ Detach() error }); ok {
		return d.Detach()
	}
	return nil
}

// JointPositions returns the tracked angle of every joint by name.
func (h *Humanoid) JointPositions() map[JointName]float64 {
	positions := make(map[JointName]float64, len(AllJoints()))
	for _, name := range AllJoints() {
		ch, _ := name.Channel()
		positions[name] = h.GetPosition(ch)
	}
	return positions
}
