package app

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/capture"
	"github.com/DavidGR0788/ruleta/domain/roulette"
	"github.com/DavidGR0788/ruleta/domain/vision/purego"
	"github.com/DavidGR0788/ruleta/internal/testutil"
)

// scriptSource replays errors and frames in order, then repeats the last frame.
type scriptSource struct {
	steps []error
	frame *image.RGBA
	calls int
}

func (s *scriptSource) Capture() (*image.RGBA, error) {
	i := s.calls
	s.calls++
	if i < len(s.steps) && s.steps[i] != nil {
		return nil, s.steps[i]
	}
	return s.frame, nil
}

// scriptDetector returns canned results in order, then empty results.
type scriptDetector struct {
	results []roulette.Result
	calls   int
}

func (d *scriptDetector) Detect(*image.RGBA) roulette.Result {
	i := d.calls
	d.calls++
	if i < len(d.results) {
		return d.results[i]
	}
	return roulette.Result{}
}

func wheelOnly() roulette.Result {
	return roulette.Result{Wheel: &roulette.Wheel{X: 10, Y: 10, Radius: 100}}
}

func both() roulette.Result {
	return roulette.Result{Wheel: &roulette.Wheel{X: 10, Y: 10, Radius: 100}, Ball: &roulette.Ball{X: 12, Y: 12}, BothFound: true}
}

func newTestValidator(src FrameSource, det roulette.Detector) *Validator {
	v := NewValidator(src, det, nil)
	v.sleep = func(context.Context, time.Duration) {}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	v.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(2 * time.Second)
	}
	return v
}

func TestVerdictFor(t *testing.T) {
	cases := []struct {
		rate float64
		want Verdict
	}{
		{1, VerdictPass},
		{0.51, VerdictPass},
		{0.5, VerdictPartial},
		{0.21, VerdictPartial},
		{0.2, VerdictFail},
		{0, VerdictFail},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, VerdictFor(c.rate), "rate %v", c.rate)
	}
}

func TestValidator_CountsFramesAndErrors(t *testing.T) {
	src := &scriptSource{
		steps: []error{nil, capture.ErrDegenerateFrame, nil, errors.New("grab"), nil, nil},
		frame: testutil.Frame(8, 8, 50),
	}
	det := &scriptDetector{results: []roulette.Result{wheelOnly(), both(), {}, wheelOnly()}}
	var frames []FrameReport

	rep, err := newTestValidator(src, det).Run(context.Background(), WatchOptions{
		MaxFrames: 4,
		OnFrame:   func(f FrameReport) { frames = append(frames, f) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 4, rep.Frames)
	assert.Equal(t, 2, rep.CaptureErrors)
	assert.Equal(t, 3, rep.Stats.Wheels)
	assert.Equal(t, 1, rep.Stats.Balls)
	assert.InDelta(t, 0.75, rep.Stats.WheelRate, 1e-9)
	assert.Equal(t, VerdictPass, rep.Verdict)
	assert.Equal(t, 2*time.Second, rep.Elapsed)
	assert.InDelta(t, 2.0, rep.FPS, 1e-9)
	assert.Equal(t, 2, rep.WheelAcquired)
	assert.Equal(t, 1, rep.WheelLost)

	require.Len(t, frames, 4)
	want := []TrackingState{StateWheelLocked, StateBallTracked, StateSearching, StateWheelLocked}
	for i, f := range frames {
		assert.Equal(t, i+1, f.Index)
		assert.Equal(t, want[i], f.State, "frame %d", i+1)
	}
}

func TestValidator_StopsWhenCaptureKeepsFailing(t *testing.T) {
	grab := errors.New("grab")
	src := &scriptSource{steps: []error{grab, grab, grab, grab, grab, grab}}

	rep, err := newTestValidator(src, &scriptDetector{}).Run(context.Background(), WatchOptions{MaxFrames: 3})
	require.NoError(t, err)
	assert.Zero(t, rep.Frames)
	assert.Equal(t, 3, rep.CaptureErrors)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, VerdictFail, rep.Verdict)

	src = &scriptSource{steps: []error{grab, grab, grab, grab, grab, grab}}
	rep, err = newTestValidator(src, &scriptDetector{}).Run(context.Background(),
		WatchOptions{MaxFrames: 3, MaxCaptureErrors: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.CaptureErrors)
}

func TestValidator_NoFramesFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := newTestValidator(&scriptSource{}, &scriptDetector{}).Run(ctx, WatchOptions{})
	require.NoError(t, err)
	assert.Zero(t, rep.Frames)
	assert.Equal(t, VerdictFail, rep.Verdict)
	assert.Empty(t, rep.Snapshot)
}

func TestValidator_StopsAtDeadline(t *testing.T) {
	src := &scriptSource{frame: testutil.Frame(8, 8, 50)}
	v := NewValidator(src, &scriptDetector{}, nil)

	rep, err := v.Run(context.Background(), WatchOptions{Duration: 30 * time.Millisecond, Interval: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.Positive(t, rep.Frames)
	assert.GreaterOrEqual(t, rep.Elapsed, 25*time.Millisecond)
}

func TestValidator_WritesSnapshot(t *testing.T) {
	src := &scriptSource{frame: testutil.Frame(64, 48, 50)}
	path := filepath.Join(t.TempDir(), "out", "last.png")

	rep, err := newTestValidator(src, &scriptDetector{results: []roulette.Result{both()}}).Run(
		context.Background(), WatchOptions{MaxFrames: 1, SnapshotPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, rep.Snapshot)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, uint8(50), src.frame.Pix[0], "source frame untouched")
}

func TestContainer_ValidatorWithPureGo(t *testing.T) {
	cfg := config.DefaultConfig()
	c := BuildContainer(cfg, nil, purego.New())

	scene := testutil.WheelScene(640, 480, 150)
	testutil.Rect(scene, image.Rect(358, 238, 363, 243), testutil.Gray(255))

	rep, err := c.Validator(&scriptSource{frame: scene}).Run(context.Background(), WatchOptions{MaxFrames: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Stats.Both)
	assert.Equal(t, VerdictPass, rep.Verdict)
	assert.Equal(t, 2, c.Stats.Stats().Frames, "container stats see every frame")
}
