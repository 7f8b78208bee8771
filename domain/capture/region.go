package capture

import (
	"image"
	"log/slog"

	"github.com/DavidGR0788/ruleta/config"
)

// PrimaryMonitor is the only monitor index that can be addressed.
const PrimaryMonitor = 1

// ResolveRegion decides which screen rectangle Capture grabs. A configured
// region is used as-is in absolute coordinates. Otherwise the primary screen
// is used, narrowed to MaxCaptureWidth when that is set and smaller than
// the screen, with the height scaled by the same factor.
func ResolveRegion(cfg config.Capture, screen image.Rectangle, logger *slog.Logger) image.Rectangle {
	if r := cfg.RegionRect(); r != nil {
		return *r
	}
	if cfg.Monitor != PrimaryMonitor && logger != nil {
		logger.Warn("monitor not addressable, using primary", "monitor", cfg.Monitor)
	}
	w, h := screen.Dx(), screen.Dy()
	if cfg.MaxCaptureWidth > 0 && w > cfg.MaxCaptureWidth {
		h = int(float64(h) * float64(cfg.MaxCaptureWidth) / float64(w))
		w = cfg.MaxCaptureWidth
	}
	return image.Rect(screen.Min.X, screen.Min.Y, screen.Min.X+w, screen.Min.Y+h)
}

// Preset is a named capture rectangle suggested for common layouts.
type Preset struct {
	Name   string          `json:"name"`
	Region image.Rectangle `json:"region"`
}

// Presets returns the suggested regions for a screen of the given size:
// full screen, left half, right half, central third and a typical browser
// viewport inset by 100 pixels.
func Presets(screen image.Rectangle) []Preset {
	w, h := screen.Dx(), screen.Dy()
	at := func(x, y, pw, ph int) image.Rectangle {
		return image.Rect(x, y, x+pw, y+ph).Add(screen.Min)
	}
	return []Preset{
		{Name: "full screen", Region: at(0, 0, w, h)},
		{Name: "left half", Region: at(0, 0, w/2, h)},
		{Name: "right half", Region: at(w/2, 0, w/2, h)},
		{Name: "central third", Region: at(w/6, 0, w*2/3, h)},
		{Name: "typical browser", Region: at(100, 100, w-200, h-200)},
	}
}
