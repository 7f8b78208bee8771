package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DavidGR0788/ruleta/domain/roulette"
	"github.com/DavidGR0788/ruleta/ui/images"
)

// Verdict grades a validation run by its wheel detection rate.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictPartial Verdict = "partial"
	VerdictFail    Verdict = "fail"
)

// VerdictFor returns pass above 50% wheel detection, partial above 20%,
// and fail otherwise. rate is a fraction in [0, 1].
func VerdictFor(rate float64) Verdict {
	switch {
	case rate > 0.5:
		return VerdictPass
	case rate > 0.2:
		return VerdictPartial
	default:
		return VerdictFail
	}
}

// FrameSource yields one frame per call.
type FrameSource interface {
	Capture() (*image.RGBA, error)
}

// WatchOptions bounds a validation run. A zero Duration and zero MaxFrames
// run until ctx is cancelled.
type WatchOptions struct {
	Duration time.Duration
	// MaxFrames counts processed frames; failed captures do not count.
	MaxFrames int
	// MaxCaptureErrors ends the run after that many failed captures.
	// Zero means MaxFrames, so a run with a frame limit always ends.
	MaxCaptureErrors int
	// Interval is the pause between frames.
	Interval time.Duration
	// RetryDelay is the pause after a failed capture.
	RetryDelay time.Duration
	// SnapshotPath receives the last annotated frame when set.
	SnapshotPath string
	// OnFrame is called after each processed frame.
	OnFrame func(FrameReport)
}

// FrameReport describes one processed frame.
type FrameReport struct {
	Index  int
	Result roulette.Result
	State  TrackingState
}

// Report summarises a validation run.
type Report struct {
	RunID         string         `json:"run_id"`
	Started       time.Time      `json:"started"`
	Elapsed       time.Duration  `json:"elapsed_ns"`
	Frames        int            `json:"frames"`
	CaptureErrors int            `json:"capture_errors"`
	FPS           float64        `json:"fps"`
	Stats         roulette.Stats `json:"stats"`
	WheelAcquired int            `json:"wheel_acquired"`
	WheelLost     int            `json:"wheel_lost"`
	Verdict       Verdict        `json:"verdict"`
	Snapshot      string         `json:"snapshot,omitempty"`
}

// Validator runs a capture and detection loop and grades the result.
type Validator struct {
	source   FrameSource
	detector roulette.Detector
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
}

// NewValidator returns a Validator reading from source.
func NewValidator(source FrameSource, detector roulette.Detector, logger *slog.Logger) *Validator {
	return &Validator{source: source, detector: detector, logger: logger, now: time.Now, sleep: sleepCtx}
}

// Validator returns a Validator over src using the container's session.
func (c *Container) Validator(src FrameSource) *Validator {
	return NewValidator(src, c.Session, c.Logger)
}

// Run loops until the duration elapses, MaxFrames frames were processed,
// MaxCaptureErrors captures failed, or ctx is cancelled. Capture failures
// are counted and skipped. The only error returned is a failure to write
// the snapshot.
func (v *Validator) Run(ctx context.Context, opts WatchOptions) (Report, error) {
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.MaxCaptureErrors <= 0 {
		opts.MaxCaptureErrors = opts.MaxFrames
	}

	rep := Report{RunID: uuid.NewString(), Started: v.now()}
	logger := v.logger
	if logger != nil {
		logger = logger.With("run_id", rep.RunID)
		logger.Info("validation started", "duration", opts.Duration, "max_frames", opts.MaxFrames)
	}

	stats := roulette.NewStatsRecorder()
	tracking := NewTrackingStateMachine(logger)
	var (
		last    *image.RGBA
		lastRes roulette.Result
	)
	for ctx.Err() == nil {
		if opts.MaxFrames > 0 && rep.Frames >= opts.MaxFrames {
			break
		}
		frame, err := v.source.Capture()
		if err != nil {
			rep.CaptureErrors++
			if logger != nil {
				logger.Warn("capture failed, skipping frame", "error", err)
			}
			if opts.MaxCaptureErrors > 0 && rep.CaptureErrors >= opts.MaxCaptureErrors {
				if logger != nil {
					logger.Error("too many capture failures, stopping", "capture_errors", rep.CaptureErrors)
				}
				break
			}
			v.sleep(ctx, opts.RetryDelay)
			continue
		}

		res := v.detector.Detect(frame)
		stats.Record(res)
		tracking.Record(res)
		rep.Frames++
		last, lastRes = frame, res
		if opts.OnFrame != nil {
			opts.OnFrame(FrameReport{Index: rep.Frames, Result: res, State: tracking.Current()})
		}
		if opts.Interval > 0 {
			v.sleep(ctx, opts.Interval)
		}
	}

	rep.Elapsed = v.now().Sub(rep.Started)
	if secs := rep.Elapsed.Seconds(); secs > 0 {
		rep.FPS = float64(rep.Frames) / secs
	}
	rep.Stats = stats.Stats()
	rep.WheelAcquired, rep.WheelLost = tracking.Counts()
	rep.Verdict = VerdictFor(rep.Stats.WheelRate)

	if logger != nil {
		logger.Info("validation finished",
			"frames", rep.Frames,
			"capture_errors", rep.CaptureErrors,
			"fps", rep.FPS,
			"wheel_rate", rep.Stats.WheelRate,
			"ball_rate", rep.Stats.BallRate,
			"verdict", string(rep.Verdict),
		)
	}

	if opts.SnapshotPath != "" && last != nil {
		out := images.Annotate(last, lastRes, rep.SummaryLines()...)
		if err := images.Save(opts.SnapshotPath, out); err != nil {
			return rep, fmt.Errorf("app: snapshot: %w", err)
		}
		rep.Snapshot = opts.SnapshotPath
	}
	return rep, nil
}

// SummaryLines renders the report as overlay text.
func (r Report) SummaryLines() []string {
	return []string{
		fmt.Sprintf("FPS: %.1f", r.FPS),
		fmt.Sprintf("Wheels: %d/%d (%.1f%%)", r.Stats.Wheels, r.Frames, 100*r.Stats.WheelRate),
		fmt.Sprintf("Balls: %d/%d (%.1f%%)", r.Stats.Balls, r.Frames, 100*r.Stats.BallRate),
		fmt.Sprintf("Verdict: %s", r.Verdict),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
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
