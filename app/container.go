// Package app wires configuration, capture and detection together for the
// command-line entry points.
package app

import (
	"log/slog"

	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/capture"
	"github.com/DavidGR0788/ruleta/domain/roulette"
	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Container holds the long-lived components of one process.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Ops     vision.Ops
	Grabber capture.Grabber
	Locator *roulette.Locator
	Stats   *roulette.StatsRecorder
	Session *roulette.Session
}

// BuildContainer constructs the detection pipeline. Nothing touches the
// display until Source is called, so detection on image files works headless.
func BuildContainer(cfg *config.Config, logger *slog.Logger, ops vision.Ops) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &Container{Config: cfg, Logger: logger, Ops: ops, Grabber: capture.ScreenGrabber{}}
	c.Locator = roulette.NewLocator(ops, cfg.Detection, logger)
	c.Stats = roulette.NewStatsRecorder()
	c.Session = roulette.NewSession(c.Locator, c.Stats, roulette.LogRecorder{Logger: logger})
	return c
}

// Source opens the configured screen region.
func (c *Container) Source() (*capture.Source, error) {
	return capture.NewSource(c.Config.Capture, c.Grabber, c.Logger)
}
