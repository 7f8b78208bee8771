package roulette

import (
	"image"
	"log/slog"
	"sync"
	"time"
)

// Recorder receives every detection result produced by a Session.
type Recorder interface {
	Record(Result)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(Result)

func (f RecorderFunc) Record(r Result) { f(r) }

// Session runs the wheel search followed by the ball search on each frame
// and hands the combined result to its recorders.
type Session struct {
	locator   *Locator
	recorders []Recorder
	now       func() time.Time
}

var _ Detector = (*Session)(nil)

// NewSession returns a Session around locator. Nil recorders are skipped.
func NewSession(locator *Locator, recorders ...Recorder) *Session {
	s := &Session{locator: locator, now: time.Now}
	for _, r := range recorders {
		if r != nil {
			s.recorders = append(s.recorders, r)
		}
	}
	return s
}

// Locator returns the locator the session drives.
func (s *Session) Locator() *Locator { return s.locator }

// Detect runs one detection pass. The ball is searched only when a wheel
// was found, and BothFound is true only when both are present.
func (s *Session) Detect(frame *image.RGBA) Result {
	start := s.now()
	res := Result{At: start}
	if w, ok := s.locator.FindWheel(frame); ok {
		res.Wheel = &w
		if b, ok := s.locator.FindBall(frame, res.Wheel); ok {
			res.Ball = &b
		}
	}
	res.BothFound = res.Wheel != nil && res.Ball != nil
	res.Duration = s.now().Sub(start)
	for _, r := range s.recorders {
		r.Record(res)
	}
	return res
}

// Stats summarizes the results seen by a StatsRecorder.
type Stats struct {
	Frames     int           `json:"frames"`
	Wheels     int           `json:"wheels"`
	Balls      int           `json:"balls"`
	Both       int           `json:"both"`
	TotalTime  time.Duration `json:"total_time_ns"`
	WheelRate  float64       `json:"wheel_rate"`
	BallRate   float64       `json:"ball_rate"`
	BothRate   float64       `json:"both_rate"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}

// StatsRecorder accumulates detection counts. Safe for concurrent use.
type StatsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

// NewStatsRecorder returns an empty StatsRecorder.
func NewStatsRecorder() *StatsRecorder { return &StatsRecorder{} }

func (r *StatsRecorder) Record(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Frames++
	r.stats.TotalTime += res.Duration
	if res.Wheel != nil {
		r.stats.Wheels++
	}
	if res.Ball != nil {
		r.stats.Balls++
	}
	if res.BothFound {
		r.stats.Both++
	}
}

// Stats returns a snapshot with the rates filled in. Rates are zero before
// the first frame.
func (r *StatsRecorder) Stats() Stats {
	r.mu.Lock()
	s := r.stats
	r.mu.Unlock()
	if s.Frames > 0 {
		n := float64(s.Frames)
		s.WheelRate = float64(s.Wheels) / n
		s.BallRate = float64(s.Balls) / n
		s.BothRate = float64(s.Both) / n
		s.AvgLatency = s.TotalTime / time.Duration(s.Frames)
	}
	return s
}

// Reset clears all counters.
func (r *StatsRecorder) Reset() {
	r.mu.Lock()
	r.stats = Stats{}
	r.mu.Unlock()
}

// LogRecorder logs one debug line per result.
type LogRecorder struct {
	Logger *slog.Logger
}

func (r LogRecorder) Record(res Result) {
	if r.Logger == nil {
		return
	}
	args := []any{"both", res.BothFound, "duration", res.Duration}
	if res.Wheel != nil {
		args = append(args, "wheel", res.Wheel.String())
	}
	if res.Ball != nil {
		args = append(args, "ball", res.Ball.String())
	}
	r.Logger.Debug("detection", args...)
}
