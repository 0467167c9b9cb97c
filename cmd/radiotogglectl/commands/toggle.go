package commands

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewToggleCommand creates the toggle command. It presses one control the
// way a tap on the surface would.
func NewToggleCommand() *cobra.Command {
	valid := make([]string, 0, len(surface.Actions))
	for _, a := range surface.Actions {
		valid = append(valid, strings.ReplaceAll(string(a), "_", "-"))
	}

	cmd := &cobra.Command{
		Use:       "toggle <" + strings.Join(valid, "|") + ">",
		Short:     "Toggle a radio or rotate the brightness level",
		Aliases:   []string{"press"},
		Args:      cobra.ExactArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, args[0])
		},
	}
	return cmd
}

// NewSleepCommand creates the sleep command
func NewSleepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sleep",
		Short: "Put the device to sleep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd, string(surface.ActionSleep))
		},
	}
}

func dispatch(cmd *cobra.Command, raw string) error {
	action, err := surface.ParseAction(raw)
	if err != nil {
		return err
	}
	c, err := clientFromCmd(cmd)
	if err != nil {
		return err
	}
	getLoggerFromCmd(cmd).Debug("Dispatching action", "action", action)
	accepted, err := c.Dispatch(string(action))
	if err != nil {
		return fmt.Errorf("failed to dispatch %s: %w", action, err)
	}
	pterm.Success.Printf("Requested %s\n", accepted)
	return nil
}
