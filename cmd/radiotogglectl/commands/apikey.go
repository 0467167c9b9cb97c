package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewAPIKeyCommand creates the api-key command group.
func NewAPIKeyCommand(logger *slog.Logger) *cobra.Command {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := &cobra.Command{
		Use:     "api-key",
		Short:   "Manage API keys for the radiotoggled HTTP API",
		Aliases: []string{"api", "apikey"},
	}

	cmd.AddCommand(
		newAPIKeyListCommand(),
		newAPIKeyAddCommand(),
		newAPIKeyDeleteCommand(),
		newAPIKeySetEnabledCommand(logger),
	)

	return cmd
}

func obfuscateAPIKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return key
}

// keyTime reads a timestamp field. Both clients deliver RFC 3339 strings.
func keyTime(m map[string]any, field string) time.Time {
	switch v := m[field].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

func newAPIKeyListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}

			keys, err := apiClient.ListAPIKeys()
			if err != nil {
				return fmt.Errorf("failed to list API keys: %w", err)
			}

			if len(keys) == 0 {
				if !parseable {
					pterm.Info.Println("No API keys found.")
				}
				return nil
			}

			if parseable {
				for _, k := range keys {
					keyStr, _ := k["key"].(string)
					name, _ := k["name"].(string)
					disabled, _ := k["disabled"].(bool)
					fmt.Printf("name=%s key=%s created_at=%s expires_at=%s enabled=%t\n",
						strconv.Quote(name), strconv.Quote(keyStr),
						formatTimeParseable(keyTime(k, "created_at")),
						formatTimeParseable(keyTime(k, "expires_at")),
						!disabled)
				}
				return nil
			}

			table := pterm.TableData{{"Name", "Key (Partial)", "Created At", "Expires At", "Enabled"}}
			for _, k := range keys {
				keyStr, _ := k["key"].(string)
				name, _ := k["name"].(string)
				disabled, _ := k["disabled"].(bool)
				table = append(table, []string{
					name,
					obfuscateAPIKey(keyStr),
					formatTimeForDisplay(keyTime(k, "created_at")),
					formatTimeForDisplay(keyTime(k, "expires_at")),
					strconv.FormatBool(!disabled),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format")
	return cmd
}

func newAPIKeyAddCommand() *cobra.Command {
	var name string
	var expiresIn string

	cmd := &cobra.Command{
		Use:   "add [name] [duration]",
		Short: "Add a new API key. Duration is a Go duration such as 720h, or 0 for never.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				name = args[0]
			}
			if name == "" {
				name, err = pterm.DefaultInteractiveTextInput.WithMultiLine(false).Show("Enter a friendly name for the API key")
				if err != nil {
					return fmt.Errorf("failed to get API key name: %w", err)
				}
				if name == "" {
					return fmt.Errorf("API key name cannot be empty")
				}
			}

			if len(args) > 1 {
				expiresIn = args[1]
			}

			var ttl time.Duration
			if expiresIn != "" && expiresIn != "0" {
				ttl, err = time.ParseDuration(expiresIn)
				if err != nil {
					return fmt.Errorf("invalid duration %q, use forms like 300s, 1.5h or 720h: %w", expiresIn, err)
				}
				if ttl < 0 {
					return fmt.Errorf("duration must not be negative")
				}
			}

			created, err := apiClient.AddAPIKey(name, ttl.Seconds())
			if err != nil {
				return fmt.Errorf("failed to add API key: %w", err)
			}

			keyStr, _ := created["key"].(string)
			keyName, _ := created["name"].(string)

			pterm.Success.Println("API Key created successfully!")
			pterm.Info.Println("  Name:    ", keyName)
			pterm.Warning.Println("  Key:     ", keyStr, "(Store this securely! It will not be shown again.)")
			if expiresAt := keyTime(created, "expires_at"); !expiresAt.IsZero() {
				pterm.Info.Println("  Expires: ", expiresAt.Format(time.RFC1123))
			} else {
				pterm.Info.Println("  Expires: Never")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Friendly name for the API key (overridden by positional argument)")
	cmd.Flags().StringVar(&expiresIn, "expires-in", "", "Duration until key expires (e.g. 720h, 0 or empty for never)")
	return cmd
}

// selectAPIKey prompts for a key when none was named on the command line.
func selectAPIKey(keys []map[string]any, prompt string) (string, error) {
	options := make([]string, 0, len(keys))
	byOption := make(map[string]string, len(keys))
	for _, k := range keys {
		name, _ := k["name"].(string)
		fullKey, _ := k["key"].(string)
		option := fmt.Sprintf("%s (%s)", name, obfuscateAPIKey(fullKey))
		options = append(options, option)
		byOption[option] = fullKey
	}
	selected, err := pterm.DefaultInteractiveSelect.WithDefaultText(prompt).WithOptions(options).Show()
	if err != nil {
		return "", fmt.Errorf("API key selection failed: %w", err)
	}
	return byOption[selected], nil
}

func newAPIKeyDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [key_or_name]",
		Short: "Delete an API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}

			var target string
			if len(args) > 0 {
				target = args[0]
			} else {
				keys, err := apiClient.ListAPIKeys()
				if err != nil {
					return fmt.Errorf("failed to list API keys for selection: %w", err)
				}
				if len(keys) == 0 {
					pterm.Info.Println("No API keys found to delete.")
					return nil
				}
				if target, err = selectAPIKey(keys, "Select API key to delete"); err != nil {
					return err
				}
			}

			if target == "" {
				return fmt.Errorf("no API key specified or selected for deletion")
			}

			if !yes {
				confirm, _ := pterm.DefaultInteractiveConfirm.
					WithDefaultText(fmt.Sprintf("Are you sure you want to delete API key %s?", obfuscateAPIKey(target))).
					WithDefaultValue(false).
					Show()
				if !confirm {
					pterm.Info.Println("API key deletion cancelled.")
					return nil
				}
			}

			if err := apiClient.DeleteAPIKey(target); err != nil {
				return fmt.Errorf("failed to delete API key: %w", err)
			}

			pterm.Success.Printf("API Key '%s' deleted successfully.\n", obfuscateAPIKey(target))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func parseEnabled(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "enabled", "enable", "on":
		return true, nil
	case "false", "disabled", "disable", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid status argument: %s. Must be true, false, enabled, or disabled", s)
}

func newAPIKeySetEnabledCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-enabled [key_or_name] [true|false]",
		Short: "Enable or disable an API key",
		Long:  "Set the enabled status of an API key.\nWithout key_or_name an interactive selection is shown, and the same applies to the status.",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}

			var target string
			var enabled bool
			statusGiven := false

			if len(args) > 0 {
				target = args[0]
			}
			if len(args) > 1 {
				if enabled, err = parseEnabled(args[1]); err != nil {
					return err
				}
				statusGiven = true
			}

			if target == "" {
				keys, err := apiClient.ListAPIKeys()
				if err != nil {
					return fmt.Errorf("failed to list API keys for selection: %w", err)
				}
				if len(keys) == 0 {
					pterm.Info.Println("No API keys found.")
					return nil
				}
				if target, err = selectAPIKey(keys, "Select API key to update"); err != nil {
					return err
				}
			}

			if !statusGiven {
				selected, err := pterm.DefaultInteractiveSelect.
					WithOptions([]string{"Enabled", "Disabled"}).
					WithDefaultText("Set API key status to").
					Show()
				if err != nil {
					return fmt.Errorf("status selection failed: %w", err)
				}
				enabled = selected == "Enabled"
			}

			// the daemon stores the inverse
			updated, err := apiClient.SetAPIKeyDisabledStatus(target, !enabled)
			if err != nil {
				return fmt.Errorf("failed to set API key enabled status: %w", err)
			}
			logger.Debug("API key status updated", "key", obfuscateAPIKey(target), "enabled", enabled)

			name, _ := updated["name"].(string)
			disabled, _ := updated["disabled"].(bool)
			pterm.Success.Printf("API key '%s' (%s) status set to: Enabled=%t\n", name, obfuscateAPIKey(target), !disabled)
			return nil
		},
	}
	return cmd
}

// formatTimeForDisplay renders zero times as Never.
func formatTimeForDisplay(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "Never"
	}
	return t.Format(time.RFC1123)
}

func formatTimeParseable(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
