// Package driver provides the PCA9685 PWM sink on top of periph.io.
package driver

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	"github.com/gwillem/humanoid/pkg/servo"
)

// DefaultAddress is the factory I2C address of the PCA9685.
const DefaultAddress uint16 = 0x40

// Config locates the PCA9685 on the I2C bus.
type Config struct {
	Bus         string // empty opens the first available bus
	Address     uint16
	FrequencyHz int
}

// PCA9685 is a servo.PwmSink writing to a PCA9685 over I2C.
type PCA9685 struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev pwmDevice
}

// pwmDevice is the subset of *pca9685.Dev we use.
type pwmDevice interface {
	SetPwm(channel int, on, off gpio.Duty) error
}

// Open initializes periph, opens the bus and sets the PWM frequency.
func Open(cfg Config) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", cfg.Bus, err)
	}

	addr := cfg.Address
	if addr == 0 {
		addr = DefaultAddress
	}
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open PCA9685 at %#02x: %w", addr, err)
	}

	freq := cfg.FrequencyHz
	if freq <= 0 {
		freq = 50
	}
	if err := dev.SetPwmFreq(physic.Frequency(freq) * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set PWM frequency: %w", err)
	}

	return &PCA9685{bus: bus, dev: dev}, nil
}

// Write sets the on and off counts of a channel.
func (p *PCA9685) Write(ch servo.Channel, on, off uint16) error {
	if !ch.Valid() {
		return &servo.InvalidChannelError{Channel: ch}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev.SetPwm(int(ch), gpio.Duty(on), gpio.Duty(off))
}

// Detach closes the bus and leaves every output running, so servos keep
// holding their last position after the process exits.
func (p *PCA9685) Detach() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bus.Close()
}

// Close stops every output and closes the bus.
func (p *PCA9685) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	for ch := 0; ch < servo.NumChannels; ch++ {
		err = multierr.Append(err, p.dev.SetPwm(ch, 0, 0))
	}
	return multierr.Append(err, p.bus.Close())
}
