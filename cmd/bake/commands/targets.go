package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the declared targets and how they are built",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}

			infos, err := c.app.Targets(cmd.Context(), opts)
			if err != nil {
				return err
			}

			tbl := table.New().
				Border(lipgloss.HiddenBorder()).
				BorderTop(false).
				BorderBottom(false).
				BorderLeft(false).
				BorderRight(false).
				BorderColumn(false).
				BorderHeader(false).
				StyleFunc(func(_, _ int) lipgloss.Style {
					return lipgloss.NewStyle().PaddingRight(2)
				}).
				Headers("TARGET", "KIND")
			for _, info := range infos {
				tbl.Row(info.Name, info.Kind)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return err
		},
	}
}
