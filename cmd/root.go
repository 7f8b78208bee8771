// Package cmd implements the ruleta command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/app"
	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/capture"
	"github.com/DavidGR0788/ruleta/domain/vision"
)

// Options carries the pieces main decides on: which vision backends are
// compiled in and how the screen is read.
type Options struct {
	Backends map[string]func() vision.Ops
	Grabber  capture.Grabber
}

// state is shared by every subcommand of one invocation.
type state struct {
	opts Options

	cfgPath   string
	logLevel  string
	logFormat string
	backend   string
	debug     bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Grabber == nil {
		opts.Grabber = capture.ScreenGrabber{}
	}
	st := &state{opts: opts}

	root := &cobra.Command{
		Use:   "ruleta",
		Short: "Roulette wheel and ball detector",
		Long: `Captures the screen, finds the roulette wheel with a Hough circle search
and the ball inside it as a small bright blob.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&st.cfgPath, "config", "c", config.DefaultPath, "settings file")
	pf.StringVar(&st.logLevel, "log-level", "", "debug, info, warn or error (overrides the settings file)")
	pf.StringVar(&st.logFormat, "log-format", "json", "json or text")
	pf.StringVar(&st.backend, "backend", "", "vision backend: "+strings.Join(backendNames(opts.Backends), ", "))
	pf.BoolVar(&st.debug, "debug", false, "log runtime metrics during long runs")

	root.AddCommand(
		newDetectCmd(st),
		newWatchCmd(st),
		newCaptureCmd(st),
		newRegionCmd(st),
		newInitCmd(st),
	)
	return root
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute(opts Options) {
	if err := NewRootCmd(opts).Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads settings, applies flag overrides and builds the logger.
// A missing or broken settings file is a warning, not an error.
func (st *state) setup(cmd *cobra.Command) error {
	cfg, loadErr := config.Load(st.cfgPath)
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = st.logLevel
	}
	if flags.Changed("backend") {
		cfg.Backend = st.backend
	}
	if flags.Changed("debug") {
		cfg.Debug = st.debug
	}
	if flags.Changed("backend") && cfg.Backend != config.BackendOpenCV && cfg.Backend != config.BackendPureGo {
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	_ = cfg.Validate()

	st.cfg = cfg
	st.logger = NewLogger(parseLevel(cfg.LogLevel), st.logFormat, cmd.ErrOrStderr())
	if loadErr != nil {
		st.logger.Warn("using default settings", "path", st.cfgPath, "error", loadErr)
	}
	return nil
}

// container builds the detection pipeline for the selected backend.
func (st *state) container() (*app.Container, error) {
	factory, ok := st.opts.Backends[st.cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("backend %q not available (have %s)",
			st.cfg.Backend, strings.Join(backendNames(st.opts.Backends), ", "))
	}
	c := app.BuildContainer(st.cfg, st.logger, factory())
	c.Grabber = st.opts.Grabber
	return c, nil
}

func backendNames(m map[string]func() vision.Ops) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
