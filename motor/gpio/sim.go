package gpio

import "sync"

// Write records a single level change on a pin.
type SimWrite struct {
	Pin   uint8
	Level Level
}

// Sim is an in-memory Driver for simulator mode and tests. It journals every
// write so the daemon's read-only surfaces can observe pin activity while a
// motion is running on another goroutine.
type Sim struct {
	mu      sync.Mutex
	levels  map[uint8]Level
	outputs map[uint8]bool
	writes  []SimWrite
}

func NewSim() *Sim {
	return &Sim{
		levels:  make(map[uint8]Level),
		outputs: make(map[uint8]bool),
	}
}

func (s *Sim) Output(pin uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[pin] = true
}

func (s *Sim) Write(pin uint8, level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = level
	s.writes = append(s.writes, SimWrite{Pin: pin, Level: level})
}

// Level reports the last level written to the pin, Low if never written.
func (s *Sim) Level(pin uint8) Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// IsOutput reports whether the pin was configured as an output.
func (s *Sim) IsOutput(pin uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputs[pin]
}

// Writes returns a copy of the write journal.
func (s *Sim) Writes() []SimWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	journal := make([]SimWrite, len(s.writes))
	copy(journal, s.writes)
	return journal
}

// PulseCount counts complete high-then-low cycles seen on the pin.
func (s *Sim) PulseCount(pin uint8) (pulses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	high := false
	for _, w := range s.writes {
		if w.Pin != pin {
			continue
		}
		if w.Level == High {
			high = true
		} else if high {
			pulses++
			high = false
		}
	}
	return pulses
}

// Reset clears the journal but keeps pin configuration and levels.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}
