package servo

import (
	"fmt"
	"sync"
)

// PwmSink is a PWM output device. Write sets the on and off counts of one
// channel within the 4096-step cycle; off=0 with on=0 stops the pulse.
type PwmSink interface {
	Write(ch Channel, on, off uint16) error
}

// Write is one recorded sink call.
type Write struct {
	Channel Channel
	On      uint16
	Off     uint16
}

// SimulatedSink records writes instead of driving hardware. Failures can be
// injected per channel.
type SimulatedSink struct {
	mu       sync.Mutex
	writes   []Write
	last     map[Channel]uint16
	failures map[Channel]simFailure
}

type simFailure struct {
	after int // successful writes left before failing
	err   error
}

// NewSimulatedSink returns an empty simulated sink.
func NewSimulatedSink() *SimulatedSink {
	return &SimulatedSink{
		last:     make(map[Channel]uint16),
		failures: make(map[Channel]simFailure),
	}
}

// FailAfter makes writes to ch fail with err once n more writes succeeded.
func (s *SimulatedSink) FailAfter(ch Channel, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("simulated bus error on channel %d", ch)
	}
	s.failures[ch] = simFailure{after: n, err: err}
}

// Heal clears an injected failure.
func (s *SimulatedSink) Heal(ch Channel) {
	s.mu.Lock()
	delete(s.failures, ch)
	s.mu.Unlock()
}

func (s *SimulatedSink) Write(ch Channel, on, off uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.failures[ch]; ok {
		if f.after <= 0 {
			return f.err
		}
		f.after--
		s.failures[ch] = f
	}
	s.writes = append(s.writes, Write{Channel: ch, On: on, Off: off})
	s.last[ch] = off
	return nil
}

// Writes returns a copy of all recorded writes.
func (s *SimulatedSink) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// WritesTo returns the recorded writes for one channel.
func (s *SimulatedSink) WritesTo(ch Channel) []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Write
	for _, w := range s.writes {
		if w.Channel == ch {
			out = append(out, w)
		}
	}
	return out
}

// Pulse returns the last off-count written to ch.
func (s *SimulatedSink) Pulse(ch Channel) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.last[ch]
	return p, ok
}

// Reset drops recorded writes.
func (s *SimulatedSink) Reset() {
	s.mu.Lock()
	s.writes = nil
	s.last = make(map[Channel]uint16)
	s.mu.Unlock()
}
