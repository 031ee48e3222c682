package peripheral

import (
	"sync"

	"github.com/nerrad567/gray-logic-node/internal/color"
)

// Logger is the logging interface used by simulated hardware.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// SimulatedStrip is an in-memory LedStrip.
type SimulatedStrip struct {
	mu      sync.Mutex
	pin     int
	pending []color.RGB
	shown   []color.RGB
	writes  int
	logger  Logger
}

// NewSimulatedStrip creates a strip of count pixels on pin.
func NewSimulatedStrip(pin, count int, logger Logger) *SimulatedStrip {
	return &SimulatedStrip{
		pin:     pin,
		pending: make([]color.RGB, count),
		shown:   make([]color.RGB, count),
		logger:  orNoop(logger),
	}
}

// Len implements LedStrip.
func (s *SimulatedStrip) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Fill implements LedStrip.
func (s *SimulatedStrip) Fill(c color.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		s.pending[i] = c
	}
}

// Write implements LedStrip.
func (s *SimulatedStrip) Write() error {
	s.mu.Lock()
	copy(s.shown, s.pending)
	s.writes++
	var first color.RGB
	if len(s.shown) > 0 {
		first = s.shown[0]
	}
	s.mu.Unlock()

	s.logger.Debug("strip written", "pin", s.pin, "pixels", len(s.shown), "r", first.R, "g", first.G, "b", first.B)
	return nil
}

// Pixels returns what the strip currently shows.
func (s *SimulatedStrip) Pixels() []color.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]color.RGB(nil), s.shown...)
}

// Writes returns how many frames have been written.
func (s *SimulatedStrip) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// SimulatedRelay is an in-memory RelaySwitch.
type SimulatedRelay struct {
	mu        sync.Mutex
	relayPin  int
	ledPin    int
	closed    bool
	indicator bool
	logger    Logger
}

// NewSimulatedRelay creates a relay on relayPin with its indicator on ledPin.
func NewSimulatedRelay(relayPin, ledPin int, logger Logger) *SimulatedRelay {
	return &SimulatedRelay{relayPin: relayPin, ledPin: ledPin, logger: orNoop(logger)}
}

// SetRelay implements RelaySwitch.
func (r *SimulatedRelay) SetRelay(closed bool) error {
	r.mu.Lock()
	r.closed = closed
	r.mu.Unlock()
	r.logger.Info("relay set", "pin", r.relayPin, "closed", closed)
	return nil
}

// Relay implements RelaySwitch.
func (r *SimulatedRelay) Relay() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed, nil
}

// SetIndicator implements RelaySwitch.
func (r *SimulatedRelay) SetIndicator(on bool) error {
	r.mu.Lock()
	r.indicator = on
	r.mu.Unlock()
	r.logger.Debug("indicator set", "pin", r.ledPin, "on", on)
	return nil
}

// Indicator reports the indicator LED level.
func (r *SimulatedRelay) Indicator() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indicator
}
