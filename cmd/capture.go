package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/ui/images"
)

func newCaptureCmd(st *state) *cobra.Command {
	var (
		outPath   string
		maxHeight int
		maxWidth  int
	)
	c := &cobra.Command{
		Use:   "capture",
		Short: "Grab the configured region once and save it as a PNG",
		Long: `Grabs the configured region once and saves a preview PNG. With --out -
the PNG bytes go to stdout and the summary to the log.`,
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
			frame, err := src.Capture()
			if err != nil {
				return err
			}
			preview := images.ScaleToHeight(frame, maxHeight)
			if maxWidth > 0 {
				preview = images.ScaleToFit(preview, maxWidth, preview.Bounds().Dy())
			}

			r := src.Region()
			if outPath == "-" {
				st.logger.Info("capture",
					"resolution", fmt.Sprintf("%dx%d", frame.Bounds().Dx(), frame.Bounds().Dy()),
					"region", formatRegion(r))
				_, err := cmd.OutOrStdout().Write(images.EncodePNG(preview))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resolution: %dx%d\n", frame.Bounds().Dx(), frame.Bounds().Dy())
			fmt.Fprintf(out, "region: %s\n", formatRegion(r))
			if err := images.Save(outPath, preview); err != nil {
				return err
			}
			fmt.Fprintf(out, "saved: %s\n", outPath)
			return nil
		},
	}
	c.Flags().StringVarP(&outPath, "out", "o", "capture.png", "output PNG, or - for stdout")
	c.Flags().IntVar(&maxHeight, "max-height", 800, "shrink the saved preview to this height (0 keeps full size)")
	c.Flags().IntVar(&maxWidth, "max-width", 0, "also shrink the preview to this width (0 for no limit)")
	return c
}
