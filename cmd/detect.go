package cmd

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/app"
	"github.com/DavidGR0788/ruleta/ui/images"
)

func newDetectCmd(st *state) *cobra.Command {
	var imagePath, outPath string
	c := &cobra.Command{
		Use:   "detect",
		Short: "Run one detection pass and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr, err := st.container()
			if err != nil {
				return err
			}
			frame, err := loadFrame(ctr, imagePath)
			if err != nil {
				return err
			}
			res := ctr.Session.Detect(frame)
			if outPath != "" {
				if err := images.Save(outPath, images.Annotate(frame, res)); err != nil {
					return err
				}
				st.logger.Info("annotated frame written", "path", outPath)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	c.Flags().StringVarP(&imagePath, "image", "i", "", "detect on an image file instead of the screen")
	c.Flags().StringVarP(&outPath, "out", "o", "", "write the annotated frame to this PNG")
	return c
}

// loadFrame reads path when given, otherwise grabs the configured region.
func loadFrame(ctr *app.Container, path string) (*image.RGBA, error) {
	if path != "" {
		return images.Load(path)
	}
	src, err := ctr.Source()
	if err != nil {
		return nil, err
	}
	frame, err := src.Capture()
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	return frame, nil
}
