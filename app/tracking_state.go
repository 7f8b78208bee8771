package app

import (
	"log/slog"
	"sync"

	"github.com/DavidGR0788/ruleta/domain/roulette"
)

// TrackingState is what the watch loop currently sees on screen.
type TrackingState int

const (
	StateSearching   TrackingState = iota // no wheel in the last frame
	StateWheelLocked                      // wheel visible, ball not found
	StateBallTracked                      // wheel and ball visible
)

func (s TrackingState) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateWheelLocked:
		return "wheel_locked"
	case StateBallTracked:
		return "ball_tracked"
	default:
		return "unknown"
	}
}

// TrackingStateListener is invoked on every state change.
type TrackingStateListener func(prev, next TrackingState)

// TrackingStateMachine follows detection results frame by frame and
// counts how often the wheel is acquired and lost. Safe for concurrent use.
type TrackingStateMachine struct {
	mu        sync.Mutex
	state     TrackingState
	logger    *slog.Logger
	listeners []TrackingStateListener

	acquired int
	lost     int
}

// NewTrackingStateMachine creates a machine starting in StateSearching.
func NewTrackingStateMachine(logger *slog.Logger) *TrackingStateMachine {
	return &TrackingStateMachine{state: StateSearching, logger: logger}
}

// AddListener registers a listener for state transitions.
func (m *TrackingStateMachine) AddListener(l TrackingStateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Current returns the current state.
func (m *TrackingStateMachine) Current() TrackingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Counts returns how many times the wheel was acquired and lost.
func (m *TrackingStateMachine) Counts() (acquired, lost int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired, m.lost
}

// Record implements roulette.Recorder so the machine can sit next to the
// stats recorder on a session.
func (m *TrackingStateMachine) Record(res roulette.Result) {
	next := StateSearching
	switch {
	case res.BothFound:
		next = StateBallTracked
	case res.Wheel != nil:
		next = StateWheelLocked
	}
	m.transition(next)
}

func (m *TrackingStateMachine) transition(next TrackingState) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	switch {
	case prev == StateSearching:
		m.acquired++
	case next == StateSearching:
		m.lost++
	}
	listeners := append([]TrackingStateListener(nil), m.listeners...)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("tracking state", "from", prev.String(), "to", next.String())
	}
	for _, l := range listeners {
		l(prev, next)
	}
}
