package commands

import (
	"fmt"
	"strconv"

	"github.com/jmylchreest/radiotoggle/pkg/settings"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewSettingsCommand creates the settings command
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write the persisted integer settings",
	}
	cmd.AddCommand(
		newSettingsListCommand(),
		newSettingsGetCommand(),
		newSettingsSetCommand(),
	)
	return cmd
}

func newSettingsListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the brightness settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			table := pterm.TableData{{"Key", "Value"}}
			for _, key := range settings.BrightnessKeys {
				value := "unset"
				if v, err := c.GetSetting(key); err == nil {
					value = strconv.Itoa(v)
				} else {
					getLoggerFromCmd(cmd).Debug("Setting not readable", "key", key, "error", err)
				}
				if parseable {
					fmt.Printf("%s=%s\n", key, value)
					continue
				}
				table = append(table, []string{key, value})
			}
			if parseable {
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newSettingsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			v, err := c.GetSetting(args[0])
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[0], err)
			}
			fmt.Println(v)
			return nil
		},
	}
}

func newSettingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("value must be an integer: %w", err)
			}
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.PutSetting(args[0], value); err != nil {
				return fmt.Errorf("failed to set %s: %w", args[0], err)
			}
			pterm.Success.Printf("%s set to %d\n", args[0], value)
			return nil
		},
	}
}

// NewLogLevelCommand creates the log-level command
func NewLogLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "log-level <debug|info|warn|error>",
		Short:     "Change the daemon's log level",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"debug", "info", "warn", "error"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			level, err := c.SetLogLevel(args[0])
			if err != nil {
				return fmt.Errorf("failed to set log level: %w", err)
			}
			pterm.Success.Printf("Daemon log level set to %s\n", level)
			return nil
		},
	}
}
