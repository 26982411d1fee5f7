package servo

import "sync"

// DefaultAngle is reported for channels that were never set or were released.
const DefaultAngle = 90.0

// StateTable tracks the last commanded angle of each channel. A single mutex
// covers the whole table since a move on one channel reads others.
type StateTable struct {
	mu     sync.Mutex
	angles map[Channel]float64
}

// NewStateTable returns a table seeded with the given angles.
func NewStateTable(initial map[Channel]float64) *StateTable {
	angles := make(map[Channel]float64, len(initial))
	for ch, a := range initial {
		angles[ch] = a
	}
	return &StateTable{angles: angles}
}

// Get returns the last angle of ch, or DefaultAngle if unset.
func (t *StateTable) Get(ch Channel) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.angles[ch]; ok {
		return a
	}
	return DefaultAngle
}

// Lookup is like Get but reports whether ch is tracked.
func (t *StateTable) Lookup(ch Channel) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.angles[ch]
	return a, ok
}

// Set records the angle of ch.
func (t *StateTable) Set(ch Channel, angle float64) {
	t.mu.Lock()
	t.angles[ch] = angle
	t.mu.Unlock()
}

// Delete forgets ch.
func (t *StateTable) Delete(ch Channel) {
	t.mu.Lock()
	delete(t.angles, ch)
	t.mu.Unlock()
}

// Snapshot returns a copy of all tracked angles.
func (t *StateTable) Snapshot() map[Channel]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Channel]float64, len(t.angles))
	for ch, a := range t.angles {
		out[ch] = a
	}
	return out
}
