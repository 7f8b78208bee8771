package images

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Load decodes an image file into an opaque RGBA frame with a zero origin.
func Load(path string) (*image.RGBA, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("images: load %s: %w", path, err)
	}
	return ToRGBA(src), nil
}

// ToRGBA copies img into a new RGBA frame at the origin with alpha forced
// to 255.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// Save writes img to path, creating parent directories. The format follows
// the file extension.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("images: mkdir %s: %w", dir, err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("images: save %s: %w", path, err)
	}
	return nil
}
