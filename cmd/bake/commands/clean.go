package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Forget previous builds so every target is rebuilt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			outputs, _ := cmd.Flags().GetBool("outputs")

			return c.app.Clean(cmd.Context(), app.CleanOptions{
				File:    file,
				Outputs: outputs,
			})
		},
	}

	cmd.Flags().BoolP("outputs", "a", false, "Also remove every declared output and generated source")

	return cmd
}
