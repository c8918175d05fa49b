package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build the named targets, or every target",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runBuild,
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Report what would be built without running anything")
	cmd.Flags().Bool("explain", false, "Explain why each target is rebuilt")
	return cmd
}

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [targets...]",
		Short: "Show which targets would be rebuilt and why",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Plan(cmd.Context(), args, opts)
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Rebuild whenever a source file changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Watch(cmd.Context(), args, opts)
		},
	}
	cmd.Flags().Bool("explain", false, "Explain why each target is rebuilt")
	return cmd
}
