package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidGR0788/ruleta/assets"
)

func newInitCmd(st *state) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default detection parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := assets.WriteDefaultSettings(st.cfgPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", st.cfgPath)
			return nil
		},
	}
	c.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return c
}
