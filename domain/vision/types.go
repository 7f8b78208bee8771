// Package vision defines the small set of image operations the roulette
// locator needs, so the locator can run on OpenCV or on the pure-Go backend.
package vision

import (
	"errors"
	"image"
)

// ErrEmptyImage is returned by backends for nil or zero-area inputs.
var ErrEmptyImage = errors.New("vision: empty image")

// Ops is the capability set a detection backend provides.
// Implementations must not mutate their inputs. Images and coordinates they
// return are relative to the input's top-left corner, even for sub-images.
type Ops interface {
	// Gray converts an RGB frame to single-channel intensity.
	Gray(frame *image.RGBA) (*image.Gray, error)
	// MedianBlur applies a ksize x ksize median filter.
	MedianBlur(src *image.Gray, ksize int) (*image.Gray, error)
	// HoughCircles runs a gradient Hough circle search.
	HoughCircles(src *image.Gray, p HoughParams) ([]Circle, error)
	// HSV converts an RGB frame to 8-bit HSV using OpenCV ranges.
	HSV(src *image.RGBA) (*HSVImage, error)
	// InRange returns a 0/255 mask of pixels with lo <= value <= hi per channel.
	InRange(src *HSVImage, lo, hi HSV) (*image.Gray, error)
	// Open applies a morphological opening with a ksize x ksize rectangle.
	Open(mask *image.Gray, ksize int) (*image.Gray, error)
	// FindContours returns the external contours of a binary mask.
	FindContours(mask *image.Gray) ([]Contour, error)
	ContourArea(c Contour) float64
	Moments(c Contour) Moments
}

// HoughParams mirrors the HOUGH_GRADIENT parameters.
type HoughParams struct {
	DP                   float64 // inverse accumulator resolution
	MinDistance          float64 // between detected centers
	EdgeThreshold        float64 // upper Canny threshold (param1)
	AccumulatorThreshold float64 // center vote threshold (param2)
	MinRadius            int
	MaxRadius            int
}

// Circle is a Hough candidate in the input's pixel space.
type Circle struct {
	X, Y, Radius float64
}

// Contour is a closed polygon, in the coordinate space of the mask it was
// extracted from.
type Contour []image.Point

// Bounds returns the bounding rectangle of the contour.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0].Add(image.Pt(1, 1))}
	for _, p := range c[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// HSV is one 8-bit HSV sample. H is in [0,180), S and V in [0,255].
type HSV struct {
	H, S, V uint8
}

// HSVImage stores HSV samples interleaved, three bytes per pixel.
type HSVImage struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewHSVImage allocates an HSV image with the given bounds.
func NewHSVImage(r image.Rectangle) *HSVImage {
	return &HSVImage{Pix: make([]uint8, 3*r.Dx()*r.Dy()), Stride: 3 * r.Dx(), Rect: r}
}

// Bounds returns the image rectangle.
func (m *HSVImage) Bounds() image.Rectangle { return m.Rect }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (m *HSVImage) PixOffset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*3
}

// At returns the sample at (x, y), or zero outside the bounds.
func (m *HSVImage) At(x, y int) HSV {
	if !(image.Point{X: x, Y: y}).In(m.Rect) {
		return HSV{}
	}
	i := m.PixOffset(x, y)
	return HSV{H: m.Pix[i], S: m.Pix[i+1], V: m.Pix[i+2]}
}

// Set stores the sample at (x, y); points outside the bounds are ignored.
func (m *HSVImage) Set(x, y int, v HSV) {
	if !(image.Point{X: x, Y: y}).In(m.Rect) {
		return
	}
	i := m.PixOffset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = v.H, v.S, v.V
}
