package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/app"
	"github.com/DavidGR0788/ruleta/debug"
)

const runtimeLogInterval = 5 * time.Second

func newWatchCmd(st *state) *cobra.Command {
	var opts app.WatchOptions
	c := &cobra.Command{
		Use:   "watch",
		Short: "Capture and detect in a loop, then grade the detection rate",
		Long: `Runs the capture and detection loop until the duration elapses or the
process is interrupted. The verdict is pass above 50% wheel detection and
partial above 20%; anything but pass exits with a non-zero status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := st.container()
			if err != nil {
				return err
			}
			src, err := ctr.Source()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if st.cfg.Debug {
				debug.StartRuntimeLogger(ctx, runtimeLogInterval, st.logger)
			}

			rep, err := ctr.Validator(src).Run(ctx, opts)
			src.LogStats()
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if rep.Verdict != app.VerdictPass {
				return fmt.Errorf("validation verdict %s: wheel found in %.1f%% of %d frames",
					rep.Verdict, 100*rep.Stats.WheelRate, rep.Frames)
			}
			return nil
		},
	}
	f := c.Flags()
	f.DurationVarP(&opts.Duration, "duration", "d", 30*time.Second, "how long to run (0 runs until interrupted)")
	f.IntVar(&opts.MaxFrames, "frames", 0, "stop after this many frames (0 for no limit)")
	f.IntVar(&opts.MaxCaptureErrors, "max-capture-errors", 0, "stop after this many failed captures (0 uses --frames)")
	f.DurationVar(&opts.Interval, "interval", 0, "pause between frames")
	f.StringVar(&opts.SnapshotPath, "snapshot", "", "write the last annotated frame to this PNG")
	return c
}
