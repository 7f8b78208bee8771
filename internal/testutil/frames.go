// Package testutil provides synthetic frames shared by the detector tests.
package testutil

import (
	"image"
	"image/color"
)

// Frame returns a w x h opaque RGBA frame filled with a uniform gray level.
func Frame(w, h int, base uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = base, base, base, 255
	}
	return img
}

// Disc fills every pixel whose center lies within r of (cx, cy).
func Disc(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// Rect fills r (clipped to the frame) with c.
func Rect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// Gray returns an opaque gray color.
func Gray(v uint8) color.RGBA { return color.RGBA{R: v, G: v, B: v, A: 255} }

// WheelScene draws a mid-gray wheel of radius r centred in a w x h black
// frame. The wheel stays below the default brightness threshold so a bright
// ball painted on it forms its own blob.
func WheelScene(w, h int, r float64) *image.RGBA {
	img := Frame(w, h, 0)
	Disc(img, float64(w)/2, float64(h)/2, r, Gray(110))
	return img
}
