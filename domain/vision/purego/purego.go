// Package purego implements vision.Ops without cgo. It trades speed for
// portability and is what the test suite runs the locator against.
package purego

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Ops is the pure-Go backend. The zero value is ready to use.
type Ops struct{}

var _ vision.Ops = Ops{}

// New returns the pure-Go backend.
func New() Ops { return Ops{} }

// Gray uses the BT.601 luma weights, as cv::cvtColor does.
func (Ops) Gray(frame *image.RGBA) (*image.Gray, error) {
	if frame == nil || frame.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	return channelToGray(effect.GrayscaleWithWeights(rebaseRGBA(frame), 0.299, 0.587, 0.114)), nil
}

func (Ops) MedianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	if ksize < 3 {
		return rebaseGray(src), nil
	}
	return channelToGray(effect.Median(rebaseGray(src), float64(ksize/2))), nil
}

// HSV converts to OpenCV's 8-bit HSV layout: H halved into [0,180),
// S and V scaled to [0,255].
func (Ops) HSV(src *image.RGBA) (*vision.HSVImage, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	b := src.Bounds()
	out := vision.NewHSVImage(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			c := colorful.Color{R: float64(row[i]) / 255, G: float64(row[i+1]) / 255, B: float64(row[i+2]) / 255}
			h, s, v := c.Hsv()
			hh := int(h/2 + 0.5)
			if hh >= 180 {
				hh -= 180
			}
			out.Set(x, y, vision.HSV{H: uint8(hh), S: uint8(s*255 + 0.5), V: uint8(v*255 + 0.5)})
		}
	}
	return out, nil
}

func (Ops) InRange(src *vision.HSVImage, lo, hi vision.HSV) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	b := src.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			p := src.At(b.Min.X+x, b.Min.Y+y)
			if p.H >= lo.H && p.H <= hi.H && p.S >= lo.S && p.S <= hi.S && p.V >= lo.V && p.V <= hi.V {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask, nil
}

// Open erodes then dilates with a square window of side ksize.
func (Ops) Open(mask *image.Gray, ksize int) (*image.Gray, error) {
	if mask == nil || mask.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	if ksize < 2 {
		return rebaseGray(mask), nil
	}
	radius := float64(ksize / 2)
	eroded := effect.Erode(rebaseGray(mask), radius)
	return channelToGray(effect.Dilate(eroded, radius)), nil
}

func (Ops) FindContours(mask *image.Gray) ([]vision.Contour, error) {
	if mask == nil || mask.Bounds().Empty() {
		return nil, vision.ErrEmptyImage
	}
	return externalContours(rebaseGray(mask)), nil
}

func (Ops) ContourArea(c vision.Contour) float64 { return vision.PolygonArea(c) }

func (Ops) Moments(c vision.Contour) vision.Moments { return vision.PolygonMoments(c) }

// rebaseRGBA returns img translated so that its bounds start at (0,0).
func rebaseRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func rebaseGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// channelToGray keeps the red channel of a filter result computed on a
// gray image, where all three channels are equal.
func channelToGray(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}
