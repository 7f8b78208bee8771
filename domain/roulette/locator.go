// Package roulette locates a roulette wheel and its ball in captured frames.
package roulette

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"runtime/debug"

	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Locator finds the wheel and the ball in single frames.
// It keeps no per-frame state, so calls are independent and repeatable.
type Locator struct {
	ops    vision.Ops
	cfg    config.Detection
	logger *slog.Logger
}

// NewLocator returns a Locator using ops. cfg is copied and validated; the
// caller's value is never modified.
func NewLocator(ops vision.Ops, cfg config.Detection, logger *slog.Logger) *Locator {
	cfg.Validate()
	return &Locator{ops: ops, cfg: cfg, logger: logger}
}

// Config returns the effective detection parameters.
func (l *Locator) Config() config.Detection { return l.cfg }

// FindWheel searches frame for the wheel. Among the circles the Hough search
// returns it keeps those centred within CenterFraction of the frame centre
// (strictly) with a radius in [MinRadius, MaxRadius], and picks the largest,
// breaking ties toward horizontal centrality. Failures report ok == false.
func (l *Locator) FindWheel(frame *image.RGBA) (w Wheel, ok bool) {
	defer l.recover("find wheel", &ok)
	if frame == nil || frame.Bounds().Empty() {
		return Wheel{}, false
	}

	gray, err := l.ops.Gray(frame)
	if err != nil {
		l.fail("find wheel: gray", err)
		return Wheel{}, false
	}
	blurred, err := l.ops.MedianBlur(gray, l.cfg.BlurKernel)
	if err != nil {
		l.fail("find wheel: median blur", err)
		return Wheel{}, false
	}
	circles, err := l.ops.HoughCircles(blurred, vision.HoughParams{
		DP:                   l.cfg.DP,
		MinDistance:          l.cfg.MinDistance,
		EdgeThreshold:        l.cfg.EdgeThreshold,
		AccumulatorThreshold: l.cfg.AccumulatorThreshold,
		MinRadius:            l.cfg.MinRadius,
		MaxRadius:            l.cfg.MaxRadius,
	})
	if err != nil {
		l.fail("find wheel: hough", err)
		return Wheel{}, false
	}
	if len(circles) == 0 {
		l.debug("no circles detected")
		return Wheel{}, false
	}

	b := frame.Bounds()
	best, found := selectWheel(circles, b.Dx(), b.Dy(), l.cfg)
	if !found {
		l.debug("circles detected but none passed the filter", "candidates", len(circles))
		return Wheel{}, false
	}
	best.X += b.Min.X
	best.Y += b.Min.Y
	l.debug("wheel detected", "x", best.X, "y", best.Y, "radius", best.Radius, "candidates", len(circles))
	return best, true
}

// selectWheel applies the centrality and radius filter and returns the
// preferred candidate in coordinates relative to the frame origin.
func selectWheel(circles []vision.Circle, width, height int, cfg config.Detection) (Wheel, bool) {
	halfW, halfH := float64(width)/2, float64(height)/2
	maxDX := float64(width) * cfg.CenterFraction
	maxDY := float64(height) * cfg.CenterFraction

	var best Wheel
	bestOffset := math.Inf(1)
	found := false
	for _, c := range circles {
		cand := Wheel{X: int(math.Round(c.X)), Y: int(math.Round(c.Y)), Radius: int(math.Round(c.Radius))}
		offX := math.Abs(float64(cand.X) - halfW)
		offY := math.Abs(float64(cand.Y) - halfH)
		if offX >= maxDX || offY >= maxDY {
			continue
		}
		if cand.Radius < cfg.MinRadius || cand.Radius > cfg.MaxRadius {
			continue
		}
		if !found || cand.Radius > best.Radius || (cand.Radius == best.Radius && offX < bestOffset) {
			best, bestOffset, found = cand, offX, true
		}
	}
	return best, found
}

// FindBall searches the square around wheel for a bright blob with an area
// in [MinBallArea, MaxBallArea] whose centroid lies inside the wheel. With
// the default "first" selection the first qualifying contour in backend
// order wins; "largest" picks the qualifying contour with the largest area.
// A nil wheel returns immediately without reading the frame.
func (l *Locator) FindBall(frame *image.RGBA, wheel *Wheel) (ball Ball, ok bool) {
	if wheel == nil {
		return Ball{}, false
	}
	defer l.recover("find ball", &ok)

	crop, roi, err := extractROI(frame, *wheel, l.cfg.BallMargin)
	if err != nil {
		l.fail("find ball: crop", err)
		return Ball{}, false
	}
	if crop == nil {
		return Ball{}, false
	}
	hsv, err := l.ops.HSV(crop)
	if err != nil {
		l.fail("find ball: hsv", err)
		return Ball{}, false
	}
	mask, err := l.ops.InRange(hsv,
		vision.HSV{H: 0, S: 0, V: uint8(l.cfg.BrightnessThreshold)},
		vision.HSV{H: 180, S: 255, V: 255})
	if err != nil {
		l.fail("find ball: threshold", err)
		return Ball{}, false
	}
	mask, err = l.ops.Open(mask, l.cfg.OpenKernel)
	if err != nil {
		l.fail("find ball: open", err)
		return Ball{}, false
	}
	contours, err := l.ops.FindContours(mask)
	if err != nil {
		l.fail("find ball: contours", err)
		return Ball{}, false
	}

	bestArea := -1.0
	for _, c := range contours {
		area := l.ops.ContourArea(c)
		if area < float64(l.cfg.MinBallArea) || area > float64(l.cfg.MaxBallArea) {
			continue
		}
		cx, cy, has := l.ops.Moments(c).Centroid()
		if !has {
			continue
		}
		cand := Ball{X: roi.Min.X + cx, Y: roi.Min.Y + cy}
		if !wheel.Contains(cand.Point()) {
			continue
		}
		if l.cfg.BallSelection != config.BallSelectLargest {
			l.debug("ball detected", "x", cand.X, "y", cand.Y, "area", area)
			return cand, true
		}
		if area > bestArea {
			ball, bestArea, ok = cand, area, true
		}
	}
	if ok {
		l.debug("ball detected", "x", ball.X, "y", ball.Y, "area", bestArea)
	}
	return ball, ok
}

func (l *Locator) recover(op string, ok *bool) {
	if r := recover(); r != nil {
		*ok = false
		if l.logger != nil {
			l.logger.Error(op+" panic", "error", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}
}

func (l *Locator) fail(msg string, err error) {
	if l.logger != nil {
		l.logger.Warn(msg, "error", err)
	}
}

func (l *Locator) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
