package images

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// ScaleToFit scales src so that it fits within maxW x maxH preserving
// aspect ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	return imaging.Fit(src, max(maxW, 1), max(maxH, 1), imaging.Linear)
}

// ScaleToHeight shrinks src to maxH rows when it is taller, keeping the
// aspect ratio. Shorter images are returned unchanged.
func ScaleToHeight(src image.Image, maxH int) image.Image {
	if src == nil || maxH <= 0 || src.Bounds().Dy() <= maxH {
		return src
	}
	return imaging.Resize(src, 0, maxH, imaging.Linear)
}
