package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the radio and brightness controls",
		Aliases: []string{"surface"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			snap, err := c.GetSurface()
			if err != nil {
				return fmt.Errorf("failed to get surface: %w", err)
			}

			if parseable {
				for _, view := range snap.Capabilities {
					fmt.Println(CapabilityParseable(view))
				}
				fmt.Println(BrightnessParseable(snap))
				return nil
			}

			return pterm.DefaultTable.WithHasHeader().WithData(SurfaceTableData(snap)).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
