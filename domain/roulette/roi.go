package roulette

import (
	"errors"
	"image"
)

var errNilFrame = errors.New("nil frame")

// wheelROI returns the square [c-r-margin, c+r+margin) around the wheel on
// both axes, clamped to bounds. The result may be empty when the wheel lies
// entirely outside the frame.
func wheelROI(bounds image.Rectangle, w Wheel, margin int) image.Rectangle {
	half := w.Radius + margin
	r := image.Rect(w.X-half, w.Y-half, w.X+half, w.Y+half)
	return r.Intersect(bounds)
}

// extractROI returns the frame pixels inside the wheel ROI without copying,
// together with the ROI in frame coordinates.
func extractROI(frame *image.RGBA, w Wheel, margin int) (*image.RGBA, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errNilFrame
	}
	roi := wheelROI(frame.Bounds(), w, margin)
	if roi.Empty() {
		return nil, roi, nil
	}
	return frame.SubImage(roi).(*image.RGBA), roi, nil
}
