package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// DefaultPath is where the settings document lives relative to the working
// directory when no --config flag is given.
const DefaultPath = "config/settings.json"

// Ball selection modes.
const (
	BallSelectFirst   = "first"
	BallSelectLargest = "largest"
)

// Vision backends.
const (
	BackendOpenCV = "opencv"
	BackendPureGo = "purego"
)

// Config holds runtime configuration for capture and detection.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug     bool      `json:"debug"`
	LogLevel  string    `json:"log_level"`
	Backend   string    `json:"backend"`
	Capture   Capture   `json:"capture"`
	Detection Detection `json:"detection"`
}

// Capture selects what part of the screen is grabbed.
type Capture struct {
	// Region is x, y, width, height in absolute screen coordinates. Any length
	// other than four means "use the monitor".
	Region []int `json:"region,omitempty"`
	// Monitor follows the 1-based numbering of the settings file; 1 is the
	// primary display.
	Monitor         int `json:"monitor"`
	MaxCaptureWidth int `json:"max_capture_width"`
}

// Detection holds the wheel and ball tuning parameters.
type Detection struct {
	// Wheel (Hough circle search)
	MinRadius            int     `json:"min_radius"`
	MaxRadius            int     `json:"max_radius"`
	DP                   float64 `json:"dp"`
	MinDistance          float64 `json:"min_dist"`
	EdgeThreshold        float64 `json:"edge_threshold"`
	AccumulatorThreshold float64 `json:"accumulator_threshold"`
	CenterFraction       float64 `json:"center_fraction"`
	BlurKernel           int     `json:"blur_kernel"`

	// Ball (brightness blobs inside the wheel)
	BallMargin          int    `json:"ball_margin"`
	MinBallArea         int    `json:"min_ball_size"`
	MaxBallArea         int    `json:"max_ball_size"`
	BrightnessThreshold int    `json:"brightness_threshold"`
	OpenKernel          int    `json:"open_kernel"`
	BallSelection       string `json:"ball_selection"`
}

// DefaultDetection returns the empirically tuned detection parameters.
func DefaultDetection() Detection {
	return Detection{
		MinRadius:            80,
		MaxRadius:            250,
		DP:                   1.2,
		MinDistance:          200,
		EdgeThreshold:        50,
		AccumulatorThreshold: 30,
		CenterFraction:       0.4,
		BlurKernel:           5,
		BallMargin:           20,
		MinBallArea:          5,
		MaxBallArea:          30,
		BrightnessThreshold:  160,
		OpenKernel:           3,
		BallSelection:        BallSelectFirst,
	}
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Backend:  BackendOpenCV,
		Capture: Capture{
			Monitor: 1,
		},
		Detection: DefaultDetection(),
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	if c.Backend != BackendOpenCV && c.Backend != BackendPureGo {
		c.Backend = BackendOpenCV
	}
	if c.Capture.Monitor < 0 {
		c.Capture.Monitor = 1
	}
	if c.Capture.MaxCaptureWidth < 0 {
		c.Capture.MaxCaptureWidth = 0
	}
	if len(c.Capture.Region) == 4 && (c.Capture.Region[2] <= 0 || c.Capture.Region[3] <= 0) {
		c.Capture.Region = nil
	}
	c.Detection.Validate()
	return nil
}

// Validate clamps detection parameters back to defaults when they are out of range.
func (d *Detection) Validate() {
	def := DefaultDetection()
	if d.MinRadius <= 0 {
		d.MinRadius = def.MinRadius
	}
	if d.MaxRadius <= 0 || d.MaxRadius < d.MinRadius {
		d.MaxRadius = d.MinRadius + (def.MaxRadius - def.MinRadius)
	}
	if d.DP < 1 {
		d.DP = def.DP
	}
	if d.MinDistance <= 0 {
		d.MinDistance = def.MinDistance
	}
	if d.EdgeThreshold <= 0 {
		d.EdgeThreshold = def.EdgeThreshold
	}
	if d.AccumulatorThreshold <= 0 {
		d.AccumulatorThreshold = def.AccumulatorThreshold
	}
	if d.CenterFraction <= 0 || d.CenterFraction > 0.5 {
		d.CenterFraction = def.CenterFraction
	}
	// median filter apertures must be odd and > 1
	if d.BlurKernel < 3 || d.BlurKernel%2 == 0 {
		d.BlurKernel = def.BlurKernel
	}
	if d.BallMargin < 0 {
		d.BallMargin = def.BallMargin
	}
	if d.MinBallArea < 0 {
		d.MinBallArea = def.MinBallArea
	}
	if d.MaxBallArea <= 0 || d.MaxBallArea < d.MinBallArea {
		d.MaxBallArea = d.MinBallArea + (def.MaxBallArea - def.MinBallArea)
	}
	if d.BrightnessThreshold < 0 || d.BrightnessThreshold > 255 {
		d.BrightnessThreshold = def.BrightnessThreshold
	}
	if d.OpenKernel < 1 {
		d.OpenKernel = def.OpenKernel
	}
	if d.BallSelection != BallSelectFirst && d.BallSelection != BallSelectLargest {
		d.BallSelection = BallSelectFirst
	}
}

// RegionRect returns the configured capture region, or nil when the monitor
// should be used instead.
func (c Capture) RegionRect() *image.Rectangle {
	if len(c.Region) != 4 {
		return nil
	}
	r := image.Rect(c.Region[0], c.Region[1], c.Region[0]+c.Region[2], c.Region[1]+c.Region[3])
	return &r
}

// Load attempts to read configuration from the given JSON file path. If the
// file is missing or malformed it returns DefaultConfig() together with the
// error so the caller can warn and carry on.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
// Keys the Config type does not know about are lost; use SaveRegion to edit
// a hand-maintained settings document.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

// SaveRegion rewrites capture.region in the settings document at path and
// leaves every other key untouched. A nil region removes the key so the
// monitor is used again. A missing document is created.
func SaveRegion(path string, region *image.Rectangle) error {
	doc := map[string]json.RawMessage{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	capture := map[string]json.RawMessage{}
	if c, ok := doc["capture"]; ok {
		if err := json.Unmarshal(c, &capture); err != nil {
			return fmt.Errorf("config: decode capture section: %w", err)
		}
	}
	if region == nil {
		delete(capture, "region")
	} else {
		if region.Empty() {
			return fmt.Errorf("config: empty region %v", *region)
		}
		v, _ := json.Marshal([]int{region.Min.X, region.Min.Y, region.Dx(), region.Dy()})
		capture["region"] = v
	}
	c, err := json.Marshal(capture)
	if err != nil {
		return err
	}
	doc["capture"] = c

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
