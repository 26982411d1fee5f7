package servo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// DefaultSpeed is the delay between interpolation steps.
const DefaultSpeed = 10 * time.Millisecond

// Channels closer than this to their target are not moved.
const noopThreshold = 0.5

// Delay between channels when Initialize drives them straight to neutral.
const initStagger = 100 * time.Millisecond

// ErrClosed is returned by moves on a closed controller.
var ErrClosed = errors.New("servo: controller closed")

// Config holds the settings for a Controller.
type Config struct {
	Sink    PwmSink
	Pulse   PulseRange          // zero value means DefaultPulseRange
	Limits  Limits              // channels without an entry use FullRange
	Neutral map[Channel]float64 // seeds the state table
	Logger  logrus.FieldLogger  // defaults to the logrus standard logger
}

// Update is a snapshot of the state table, published after every step.
type Update struct {
	Positions map[Channel]float64
	Timestamp time.Time
}

// Controller moves servos by linear interpolation, one PWM write per degree,
// pacing each step with a fixed delay. All moves are serialized.
type Controller struct {
	sink    PwmSink
	pulse   PulseRange
	limits  Limits
	neutral map[Channel]float64
	state   *StateTable
	log     logrus.FieldLogger
	sleep   func(ctx context.Context, d time.Duration)

	mu       sync.Mutex
	closed   bool
	updateCh chan Update
}

// NewController validates cfg and returns a controller. No hardware is
// written until the first move.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Sink == nil {
		return nil, errors.New("servo: nil PWM sink")
	}
	if cfg.Pulse == (PulseRange{}) {
		cfg.Pulse = DefaultPulseRange
	}
	if err := cfg.Pulse.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	limits := make(Limits, len(cfg.Limits))
	maps.Copy(limits, cfg.Limits)

	neutral := make(map[Channel]float64, len(cfg.Neutral))
	for ch, a := range cfg.Neutral {
		if err := validateTarget(ch, a); err != nil {
			return nil, fmt.Errorf("neutral: %w", err)
		}
		safe := limits.Clamp(ch, a)
		if safe != a {
			cfg.Logger.WithFields(logrus.Fields{"channel": ch, "angle": a, "clamped": safe}).
				Warn("neutral angle outside limits")
		}
		neutral[ch] = safe
	}

	return &Controller{
		sink:     cfg.Sink,
		pulse:    cfg.Pulse,
		limits:   limits,
		neutral:  neutral,
		state:    NewStateTable(neutral),
		log:      cfg.Logger,
		sleep:    sleepContext,
		updateCh: make(chan Update, 1),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func validateTarget(ch Channel, angle float64) error {
	if !ch.Valid() {
		return &InvalidChannelError{Channel: ch}
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return &InvalidAngleError{Channel: ch, Angle: angle}
	}
	return nil
}

// Updates returns a channel carrying the latest state snapshot. Slow
// readers only see the most recent one.
func (c *Controller) Updates() <-chan Update {
	return c.updateCh
}

// SetPosition moves one channel. See SetPositions.
func (c *Controller) SetPosition(ctx context.Context, ch Channel, angle float64, speed time.Duration) error {
	return c.SetPositions(ctx, map[Channel]float64{ch: angle}, speed)
}

// SetPositions moves all targets in lock-step. Targets are clamped to their
// limits and channels already within half a degree are skipped. The batch
// takes as many steps as the longest travel in whole degrees, sleeping speed
// after each. A write failure stops that channel only; failures are returned
// as combined *HardwareWriteError values. Nothing is rolled back.
func (c *Controller) SetPositions(ctx context.Context, targets map[Channel]float64, speed time.Duration) error {
	for ch, a := range targets {
		if err := validateTarget(ch, a); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.move(ctx, targets, speed)
}

type travel struct {
	ch       Channel
	from, to float64
	last     float64
	failed   bool
}

func (t *travel) steps() int {
	return max(1, int(math.Ceil(math.Abs(t.to-t.from))))
}

func (t *travel) at(step, steps int) float64 {
	if step >= steps {
		return t.to
	}
	return t.from + float64(step)/float64(steps)*(t.to-t.from)
}

// move must be called with c.mu held.
func (c *Controller) move(ctx context.Context, targets map[Channel]float64, speed time.Duration) error {
	var travels []*travel
	for _, ch := range slices.Sorted(maps.Keys(targets)) {
		to := c.limits.Clamp(ch, targets[ch])
		from := c.state.Get(ch)
		if math.Abs(to-from) < noopThreshold {
			continue
		}
		travels = append(travels, &travel{ch: ch, from: from, to: to, last: from})
	}
	if len(travels) == 0 {
		return nil
	}

	steps := 1
	for _, t := range travels {
		steps = max(steps, t.steps())
		c.log.WithFields(logrus.Fields{"channel": t.ch, "from": t.from, "to": t.to}).Debug("moving servo")
	}

	var errs error
	live := len(travels)
	for step := 1; step <= steps && live > 0; step++ {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		for _, t := range travels {
			if t.failed {
				continue
			}
			angle := t.at(step, steps)
			if err := c.sink.Write(t.ch, 0, c.pulse.AngleToPulse(angle)); err != nil {
				t.failed = true
				live--
				c.log.WithError(err).WithFields(logrus.Fields{"channel": t.ch, "last_angle": t.last}).
					Warn("servo write failed")
				errs = multierr.Append(errs, &HardwareWriteError{Channel: t.ch, LastAngle: t.last, Err: err})
				continue
			}
			t.last = angle
			c.state.Set(t.ch, angle)
		}
		c.publish()
		c.sleep(ctx, speed)
	}
	return errs
}

// GetPosition returns the last commanded angle of ch, not a hardware
// reading. Unset channels report DefaultAngle.
func (c *Controller) GetPosition(ch Channel) float64 {
	return c.state.Get(ch)
}

// Driven returns the last commanded angle of ch and whether ch is being
// driven at all. Released and never moved channels report false.
func (c *Controller) Driven(ch Channel) (float64, bool) {
	return c.state.Lookup(ch)
}

// Positions returns all tracked angles.
func (c *Controller) Positions() map[Channel]float64 {
	return c.state.Snapshot()
}

// Limit returns the effective limit of ch.
func (c *Controller) Limit(ch Channel) Limit {
	return c.limits.For(ch)
}

// NeutralPositions returns the calibrated neutral table.
func (c *Controller) NeutralPositions() map[Channel]float64 {
	return maps.Clone(c.neutral)
}

// Release stops driving ch and forgets its angle.
func (c *Controller) Release(ch Channel) error {
	if !ch.Valid() {
		return &InvalidChannelError{Channel: ch}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	err := c.release(ch)
	c.publish()
	return err
}

func (c *Controller) release(ch Channel) error {
	if err := c.sink.Write(ch, 0, 0); err != nil {
		return &HardwareWriteError{Channel: ch, LastAngle: c.state.Get(ch), Err: err}
	}
	c.state.Delete(ch)
	c.log.WithField("channel", ch).Debug("released servo")
	return nil
}

// ReleaseAll releases every tracked and every neutral channel.
func (c *Controller) ReleaseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	err := c.releaseAll()
	c.publish()
	return err
}

func (c *Controller) releaseAll() error {
	chans := c.state.Snapshot()
	for ch := range c.neutral {
		chans[ch] = 0
	}
	var errs error
	for _, ch := range slices.Sorted(maps.Keys(chans)) {
		errs = multierr.Append(errs, c.release(ch))
	}
	return errs
}

// Initialize drives every neutral channel straight to its neutral angle,
// without interpolation.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.log.Info("initializing servos")

	var errs error
	for _, ch := range slices.Sorted(maps.Keys(c.neutral)) {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		angle := c.neutral[ch]
		if err := c.sink.Write(ch, 0, c.pulse.AngleToPulse(angle)); err != nil {
			errs = multierr.Append(errs, &HardwareWriteError{Channel: ch, LastAngle: c.state.Get(ch), Err: err})
			continue
		}
		c.state.Set(ch, angle)
		c.sleep(ctx, initStagger)
	}
	c.publish()
	return errs
}

// Neutral moves every neutral channel back to its neutral angle.
func (c *Controller) Neutral(ctx context.Context, speed time.Duration) error {
	return c.SetPositions(ctx, c.NeutralPositions(), speed)
}

// Close releases all channels and closes the sink if it is an io.Closer.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.releaseAll()
	if closer, ok := c.sink.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	c.log.Info("servo controller closed")
	return err
}

func (c *Controller) publish() {
	u := Update{Positions: c.state.Snapshot(), Timestamp: time.Now()}
	select {
	case c.updateCh <- u:
	default:
		// Drop the stale update and replace it
		select {
		case <-c.updateCh:
		default:
		}
		c.updateCh <- u
	}
}
