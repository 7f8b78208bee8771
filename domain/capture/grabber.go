// Package capture grabs frames from the screen for the detectors.
package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// Grabber reads pixels from a display.
type Grabber interface {
	// Grab returns the whole primary screen.
	Grab() (*image.RGBA, error)
	// GrabRect returns the given rectangle in absolute screen coordinates.
	GrabRect(r image.Rectangle) (*image.RGBA, error)
	// ScreenRect returns the bounds of the primary screen.
	ScreenRect() (image.Rectangle, error)
}

// ScreenGrabber captures the primary display.
type ScreenGrabber struct{}

var _ Grabber = ScreenGrabber{}

func (ScreenGrabber) Grab() (*image.RGBA, error) { return screenshot.CaptureScreen() }

func (ScreenGrabber) GrabRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

func (ScreenGrabber) ScreenRect() (image.Rectangle, error) { return screenshot.ScreenRect() }
