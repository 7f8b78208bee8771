package capture

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/DavidGR0788/ruleta/config"
)

type fakeGrabber struct {
	screen    image.Rectangle
	screenErr error
	frame     func(r image.Rectangle) *image.RGBA
	grabErr   error

	grabs []image.Rectangle
	full  int
}

func (g *fakeGrabber) Grab() (*image.RGBA, error) {
	g.full++
	return g.GrabRect(g.screen)
}

func (g *fakeGrabber) GrabRect(r image.Rectangle) (*image.RGBA, error) {
	g.grabs = append(g.grabs, r)
	if g.grabErr != nil {
		return nil, g.grabErr
	}
	return g.frame(r), nil
}

func (g *fakeGrabber) ScreenRect() (image.Rectangle, error) { return g.screen, g.screenErr }

// synthFrame returns a frame of r's size filled with c.
func synthFrame(r image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func solid(c color.RGBA) func(image.Rectangle) *image.RGBA {
	return func(r image.Rectangle) *image.RGBA { return synthFrame(r, c) }
}

func TestSource_CapturesConfiguredRegion(t *testing.T) {
	g := &fakeGrabber{screen: image.Rect(0, 0, 1920, 1080), frame: solid(color.RGBA{R: 10, G: 20, B: 30, A: 0})}
	src, err := NewSource(config.Capture{Region: []int{341, 192, 683, 384}}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	want := image.Rect(341, 192, 1024, 576)
	if src.Region() != want {
		t.Fatalf("region = %v, want %v", src.Region(), want)
	}

	img, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if diff := cmp.Diff([]image.Rectangle{want}, g.grabs); diff != "" {
		t.Fatalf("grabs (-want +got):\n%s", diff)
	}
	if img.Bounds().Dx() != 683 {
		t.Fatalf("width = %d, want 683", img.Bounds().Dx())
	}
	if img.Pix[3] != 0xff {
		t.Fatalf("alpha = %d, want opaque", img.Pix[3])
	}
	if img.Pix[0] != 10 {
		t.Fatalf("red = %d, want 10", img.Pix[0])
	}
}

func TestSource_FullScreenUsesGrab(t *testing.T) {
	g := &fakeGrabber{screen: image.Rect(0, 0, 800, 600), frame: solid(color.RGBA{R: 1, A: 255})}
	src, err := NewSource(config.Capture{Monitor: 1}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, err := src.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if g.full != 1 {
		t.Fatalf("full-screen grabs = %d, want 1", g.full)
	}
}

func TestSource_CaptureRegionOverride(t *testing.T) {
	g := &fakeGrabber{screen: image.Rect(0, 0, 800, 600), frame: solid(color.RGBA{G: 1, A: 255})}
	src, err := NewSource(config.Capture{Monitor: 1}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	override := image.Rect(10, 20, 110, 220)
	img, err := src.CaptureRegion(&override)
	if err != nil {
		t.Fatalf("CaptureRegion: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 200) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if diff := cmp.Diff([]image.Rectangle{override}, g.grabs); diff != "" {
		t.Fatalf("grabs (-want +got):\n%s", diff)
	}
	if src.Region() != image.Rect(0, 0, 800, 600) {
		t.Fatalf("override leaked into configured region: %v", src.Region())
	}
}

func TestSource_Errors(t *testing.T) {
	cause := errors.New("display gone")
	g := &fakeGrabber{screen: image.Rect(0, 0, 64, 64), grabErr: cause}
	src, err := NewSource(config.Capture{Monitor: 1}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	_, err = src.Capture()
	if !errors.Is(err, ErrCaptureFailed) || !strings.Contains(err.Error(), "display gone") {
		t.Fatalf("grab failure: got %v", err)
	}

	g.grabErr = nil
	g.frame = solid(color.RGBA{A: 255})
	if _, err := src.Capture(); !errors.Is(err, ErrDegenerateFrame) {
		t.Fatalf("all-black frame: got %v", err)
	}

	g.frame = func(image.Rectangle) *image.RGBA { return image.NewRGBA(image.Rectangle{}) }
	if _, err := src.Capture(); !errors.Is(err, ErrDegenerateFrame) {
		t.Fatalf("zero-area frame: got %v", err)
	}

	stats := src.Stats()
	if stats.Failures != 1 || stats.Degenerate != 2 || stats.Captures != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if src.Latest().Image != nil {
		t.Fatalf("failed captures must not replace the latest frame")
	}
}

func TestSource_SingleLitPixelIsNotDegenerate(t *testing.T) {
	g := &fakeGrabber{screen: image.Rect(0, 0, 32, 32), frame: func(r image.Rectangle) *image.RGBA {
		img := synthFrame(r, color.RGBA{})
		img.SetRGBA(31, 31, color.RGBA{B: 1})
		return img
	}}
	src, err := NewSource(config.Capture{Monitor: 1}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, err := src.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
}

func TestSource_StatsAndLatest(t *testing.T) {
	g := &fakeGrabber{screen: image.Rect(0, 0, 16, 16), frame: solid(color.RGBA{R: 9, A: 255})}
	src, err := NewSource(config.Capture{Monitor: 1}, g, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	src.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		if _, err := src.Capture(); err != nil {
			t.Fatalf("Capture %d: %v", i, err)
		}
	}
	stats := src.Stats()
	if stats.Captures != 3 || stats.Sequence != 3 {
		t.Fatalf("captures/sequence = %d/%d, want 3/3", stats.Captures, stats.Sequence)
	}
	if stats.AvgCapture != time.Millisecond {
		t.Fatalf("avg capture = %v", stats.AvgCapture)
	}
	if !stats.LastCapture.Equal(base.Add(6 * time.Millisecond)) {
		t.Fatalf("last capture = %v", stats.LastCapture)
	}
	if stats.LatestFrameAge != time.Millisecond {
		t.Fatalf("latest frame age = %v", stats.LatestFrameAge)
	}
	if seq := src.Latest().Sequence; seq != 3 {
		t.Fatalf("latest sequence = %d, want 3", seq)
	}
}

func TestNewSource_ScreenError(t *testing.T) {
	g := &fakeGrabber{screenErr: errors.New("no display")}
	if _, err := NewSource(config.Capture{Monitor: 1}, g, nil); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("monitor capture without screen: got %v", err)
	}

	src, err := NewSource(config.Capture{Region: []int{0, 0, 10, 10}}, g, nil)
	if err != nil {
		t.Fatalf("explicit region does not need the screen: %v", err)
	}
	if src.Region() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("region = %v", src.Region())
	}
}
