package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidGR0788/ruleta/app"
	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/roulette"
	"github.com/DavidGR0788/ruleta/domain/vision"
	"github.com/DavidGR0788/ruleta/domain/vision/purego"
	"github.com/DavidGR0788/ruleta/internal/testutil"
	"github.com/DavidGR0788/ruleta/ui/images"
)

// sceneGrabber serves copies of a fixed frame as the screen.
type sceneGrabber struct {
	frame *image.RGBA
}

func (g sceneGrabber) Grab() (*image.RGBA, error) { return g.GrabRect(g.frame.Bounds()) }

func (g sceneGrabber) GrabRect(r image.Rectangle) (*image.RGBA, error) {
	r = r.Intersect(g.frame.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), g.frame, r.Min, draw.Src)
	return out, nil
}

func (g sceneGrabber) ScreenRect() (image.Rectangle, error) { return g.frame.Bounds(), nil }

func ballScene() *image.RGBA {
	img := testutil.WheelScene(640, 480, 150)
	testutil.Rect(img, image.Rect(358, 238, 363, 243), testutil.Gray(255))
	return img
}

func testOptions(frame *image.RGBA) Options {
	return Options{
		Backends: map[string]func() vision.Ops{
			config.BackendPureGo: func() vision.Ops { return purego.New() },
		},
		Grabber: sceneGrabber{frame: frame},
	}
}

func run(t *testing.T, opts Options, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(opts)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDetect_ImageFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scene.png")
	annotated := filepath.Join(dir, "annotated.png")
	require.NoError(t, images.Save(in, ballScene()))

	out, err := run(t, testOptions(ballScene()),
		"detect", "--config", filepath.Join(dir, "settings.json"), "--backend", "purego",
		"--image", in, "--out", annotated)
	require.NoError(t, err)

	var res roulette.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Wheel)
	assert.InDelta(t, 320, res.Wheel.X, 3)
	require.NotNil(t, res.Ball)
	assert.Equal(t, roulette.Ball{X: 360, Y: 240}, *res.Ball)
	assert.True(t, res.BothFound)

	_, err = os.Stat(annotated)
	assert.NoError(t, err)
}

func TestDetect_Screen(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "settings.json")
	out, err := run(t, testOptions(ballScene()), "detect", "-c", cfg, "--backend", "purego")
	require.NoError(t, err)
	assert.Contains(t, out, `"both_found": true`)
}

func TestBackendSelection(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "settings.json")

	_, err := run(t, testOptions(ballScene()), "detect", "-c", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	_, err = run(t, testOptions(ballScene()), "detect", "-c", cfg, "--backend", "cuda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestCapture_WritesScaledPreview(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "shot.png")
	out, err := run(t, testOptions(ballScene()),
		"capture", "-c", filepath.Join(dir, "settings.json"), "--backend", "purego",
		"--out", png, "--max-height", "240")
	require.NoError(t, err)
	assert.Contains(t, out, "resolution: 640x480")
	assert.Contains(t, out, "region: 0,0 640x480")

	saved, err := images.Load(png)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), saved.Bounds())
}

func TestCapture_StdoutAndWidthLimit(t *testing.T) {
	out, err := run(t, testOptions(ballScene()),
		"capture", "-c", filepath.Join(t.TempDir(), "settings.json"), "--backend", "purego",
		"--out", "-", "--max-width", "160")
	require.NoError(t, err)

	img, err := png.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())
}

func TestWatch_Verdicts(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "settings.json")

	out, err := run(t, testOptions(ballScene()),
		"watch", "-c", cfg, "--backend", "purego", "--frames", "2", "--duration", "0")
	require.NoError(t, err)
	var rep app.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2, rep.Frames)
	assert.Equal(t, app.VerdictPass, rep.Verdict)

	_, err = run(t, testOptions(testutil.Frame(640, 480, 90)),
		"watch", "-c", cfg, "--backend", "purego", "--frames", "1", "--duration", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verdict fail")
}

func TestRegion_SetShowClear(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config", "settings.json")
	opts := testOptions(testutil.Frame(1366, 768, 10))

	out, err := run(t, opts, "region", "show", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "region: none (monitor 1)\n", out)

	_, err = run(t, opts, "region", "set", "-c", cfg, "341", "192", "683", "384")
	require.NoError(t, err)
	loaded, err := config.Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{341, 192, 683, 384}, loaded.Capture.Region)

	out, err = run(t, opts, "region", "show", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "region: 341,192 683x384\n", out)

	_, err = run(t, opts, "region", "set", "-c", cfg, "--preset", "2")
	require.NoError(t, err)
	loaded, err = config.Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 683, 768}, loaded.Capture.Region)

	_, err = run(t, opts, "region", "clear", "-c", cfg)
	require.NoError(t, err)
	loaded, err = config.Load(cfg)
	require.NoError(t, err)
	assert.Nil(t, loaded.Capture.Region)
}

func TestRegion_SetRejectsBadInput(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "settings.json")
	opts := testOptions(testutil.Frame(100, 100, 10))

	_, err := run(t, opts, "region", "set", "-c", cfg, "1", "2", "3")
	assert.Error(t, err)
	_, err = run(t, opts, "region", "set", "-c", cfg, "1", "2", "x", "4")
	assert.Error(t, err)
	_, err = run(t, opts, "region", "set", "-c", cfg, "1", "2", "0", "4")
	assert.Error(t, err)
	_, err = run(t, opts, "region", "set", "-c", cfg, "--preset", "9")
	assert.Error(t, err)
}

func TestRegion_Presets(t *testing.T) {
	out, err := run(t, testOptions(testutil.Frame(1366, 768, 10)),
		"region", "presets", "-c", filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "full screen")
	assert.Contains(t, lines[3], "227,0 910x768")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(slog.LevelWarn, "text", &buf).Info("hidden")
	NewLogger(slog.LevelWarn, "text", &buf).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	NewLogger(slog.LevelInfo, "json", &buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestInit_WritesDefaults(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config", "settings.json")
	opts := testOptions(testutil.Frame(10, 10, 10))

	out, err := run(t, opts, "init", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, cfg)

	_, err = run(t, opts, "init", "-c", cfg)
	assert.Error(t, err, "existing file kept without --force")
	_, err = run(t, opts, "init", "-c", cfg, "--force")
	assert.NoError(t, err)
}
