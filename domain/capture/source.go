package capture

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DavidGR0788/ruleta/config"
)

var (
	// ErrCaptureFailed wraps any error reported by the grabber.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrDegenerateFrame is returned for frames with no area or no signal.
	ErrDegenerateFrame = errors.New("degenerate frame")
)

const statsLogInterval = 5 * time.Second

// Source grabs frames of a fixed screen region. It performs no retries; a
// failed capture is reported to the caller, which decides whether to skip.
type Source struct {
	grabber   Grabber
	region    image.Rectangle
	fullScene bool
	logger    *slog.Logger
	now       func() time.Time

	latest       atomic.Pointer[FrameSnapshot]
	captures     atomic.Uint64
	failures     atomic.Uint64
	degenerate   atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastLog      atomic.Int64
}

// NewSource resolves the capture region from cfg and the grabber's screen
// bounds. Querying the screen is the only call that can fail here.
func NewSource(cfg config.Capture, grabber Grabber, logger *slog.Logger) (*Source, error) {
	s := &Source{grabber: grabber, logger: logger, now: time.Now}
	screen, err := grabber.ScreenRect()
	if err != nil {
		if r := cfg.RegionRect(); r != nil {
			// an explicit region does not need the screen size
			s.region = *r
			return s, nil
		}
		return nil, fmt.Errorf("%w: screen bounds: %v", ErrCaptureFailed, err)
	}
	s.region = ResolveRegion(cfg, screen, logger)
	s.fullScene = s.region == screen
	if logger != nil {
		logger.Info("capture region", "x", s.region.Min.X, "y", s.region.Min.Y,
			"width", s.region.Dx(), "height", s.region.Dy())
	}
	return s, nil
}

// Region returns the rectangle Capture grabs, in absolute screen coordinates.
func (s *Source) Region() image.Rectangle { return s.region }

// Capture grabs the configured region.
func (s *Source) Capture() (*image.RGBA, error) { return s.CaptureRegion(nil) }

// CaptureRegion grabs r instead of the configured region for this call only.
// A nil r is the same as Capture. The returned frame is opaque.
func (s *Source) CaptureRegion(r *image.Rectangle) (*image.RGBA, error) {
	start := s.now()
	var (
		img *image.RGBA
		err error
	)
	switch {
	case r != nil:
		img, err = s.grabber.GrabRect(*r)
	case s.fullScene:
		img, err = s.grabber.Grab()
	default:
		img, err = s.grabber.GrabRect(s.region)
	}
	if err != nil {
		s.failures.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if degenerate(img) {
		s.degenerate.Add(1)
		return nil, ErrDegenerateFrame
	}
	forceOpaque(img)

	now := s.now()
	s.captureNanos.Add(uint64(now.Sub(start).Nanoseconds()))
	s.captures.Add(1)
	seq := s.sequence.Add(1)
	s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: now, Sequence: seq})

	if last := s.lastLog.Load(); now.UnixNano()-last >= int64(statsLogInterval) && s.lastLog.CompareAndSwap(last, now.UnixNano()) {
		s.LogStats()
	}
	return img, nil
}

// Latest returns the most recent successful capture.
func (s *Source) Latest() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

// Stats returns capture counters and the average grab latency.
func (s *Source) Stats() Stats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(total / captures)
	}
	snapshot := s.Latest()
	var age time.Duration
	if !snapshot.CapturedAt.IsZero() {
		age = s.now().Sub(snapshot.CapturedAt)
	}
	return Stats{
		Captures:       captures,
		Failures:       s.failures.Load(),
		Degenerate:     s.degenerate.Load(),
		AvgCapture:     avg,
		LastCapture:    snapshot.CapturedAt,
		LatestFrameAge: age,
		Sequence:       snapshot.Sequence,
	}
}

// LogStats writes the current counters at debug level.
func (s *Source) LogStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failures", stats.Failures,
		"degenerate", stats.Degenerate,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}

// degenerate reports frames with zero area or whose RGB samples are all zero.
func degenerate(img *image.RGBA) bool {
	if img == nil || img.Bounds().Empty() {
		return true
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X-1, y)+4]
		for i := 0; i < len(row); i += 4 {
			if row[i]|row[i+1]|row[i+2] != 0 {
				return false
			}
		}
	}
	return true
}

func forceOpaque(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			img.Pix[off+4*x+3] = 0xff
		}
	}
}
