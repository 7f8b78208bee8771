package cmd

import (
	"fmt"
	"image"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/config"
	"github.com/DavidGR0788/ruleta/domain/capture"
)

func newRegionCmd(st *state) *cobra.Command {
	c := &cobra.Command{
		Use:   "region",
		Short: "Show or change the capture region stored in the settings file",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the configured capture region",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				if r := st.cfg.Capture.RegionRect(); r != nil {
					fmt.Fprintf(out, "region: %s\n", formatRegion(*r))
					return nil
				}
				fmt.Fprintf(out, "region: none (monitor %d", st.cfg.Capture.Monitor)
				if w := st.cfg.Capture.MaxCaptureWidth; w > 0 {
					fmt.Fprintf(out, ", max width %d", w)
				}
				fmt.Fprintln(out, ")")
				return nil
			},
		},
		newRegionSetCmd(st),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the region so the whole monitor is captured",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.SaveRegion(st.cfgPath, nil); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "region cleared in %s\n", st.cfgPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "presets",
			Short: "List suggested regions for the current screen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				presets, err := st.presets()
				if err != nil {
					return err
				}
				for i, p := range presets {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. %-16s %s\n", i+1, p.Name, formatRegion(p.Region))
				}
				return nil
			},
		},
	)
	return c
}

func newRegionSetCmd(st *state) *cobra.Command {
	var preset int
	c := &cobra.Command{
		Use:   "set [X Y WIDTH HEIGHT]",
		Short: "Store a capture region in absolute screen coordinates",
		Args: func(cmd *cobra.Command, args []string) error {
			if preset > 0 {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var r image.Rectangle
			if preset > 0 {
				presets, err := st.presets()
				if err != nil {
					return err
				}
				if preset > len(presets) {
					return fmt.Errorf("preset %d out of range 1-%d", preset, len(presets))
				}
				r = presets[preset-1].Region
			} else {
				v, err := parseInts(args)
				if err != nil {
					return err
				}
				if v[2] <= 0 || v[3] <= 0 {
					return fmt.Errorf("width and height must be positive")
				}
				r = image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3])
			}
			if err := config.SaveRegion(st.cfgPath, &r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "region set to %s in %s\n", formatRegion(r), st.cfgPath)
			return nil
		},
	}
	c.Flags().IntVarP(&preset, "preset", "p", 0, "use a preset from 'region presets' instead of coordinates")
	return c
}

func (st *state) presets() ([]capture.Preset, error) {
	screen, err := st.opts.Grabber.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("%w: screen bounds: %v", capture.ErrCaptureFailed, err)
	}
	return capture.Presets(screen), nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func formatRegion(r image.Rectangle) string {
	return fmt.Sprintf("%d,%d %dx%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}
