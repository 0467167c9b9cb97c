package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/utils"
	"github.com/jmylchreest/radiotoggle/pkg/client"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. The client is built from the
// persistent flags before any subcommand runs, unless the context already
// carries one.
func NewRootCommand(logger *slog.Logger, cfg *config.Config, version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "radiotogglectl",
		Short:        "Control the radios and screen brightness through radiotoggled",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return attachClient(cmd, logger, cfg)
		},
	}

	cmd.PersistentFlags().String("socket", "", "Path to radiotoggled socket")
	cmd.PersistentFlags().String("api-url", "", "Use the HTTP API at this base URL instead of the socket")
	cmd.PersistentFlags().String("api-key", "", "API key sent with HTTP requests")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newVersionCommand(version, commit, buildDate),
		NewStatusCommand(),
		NewToggleCommand(),
		NewSleepCommand(),
		NewSettingsCommand(),
		NewLogLevelCommand(),
		NewAPIKeyCommand(logger),
	)

	parent := context.Background()
	if logger != nil {
		parent = context.WithValue(parent, loggerContextKey{}, logger)
	}
	cmd.SetContext(parent)

	return cmd
}

func attachClient(cmd *cobra.Command, logger *slog.Logger, cfg *config.Config) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(ClientContextKey).(client.ClientInterface); ok {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	flags := cmd.Flags()
	if level, _ := flags.GetString("log-level"); level != "" {
		if utils.ValidateLogLevel(level) != level {
			return fmt.Errorf("invalid log level %q", level)
		}
		utils.SetLevel(level)
	}

	var c client.ClientInterface
	if apiURL, _ := flags.GetString("api-url"); apiURL != "" {
		apiKey, _ := flags.GetString("api-key")
		c = client.NewHTTP(logger, apiURL, apiKey)
	} else {
		socket, _ := flags.GetString("socket")
		if socket == "" && cfg != nil {
			socket = cfg.Server.UnixSocket
		}
		c = client.New(logger, socket)
	}

	cmd.SetContext(context.WithValue(ctx, ClientContextKey, c))
	return nil
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Client:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)

			c, err := clientFromCmd(cmd)
			if err != nil {
				return
			}
			resp, err := c.Version()
			if err != nil {
				getLoggerFromCmd(cmd).Debug("Daemon version query failed", "error", err)
				fmt.Printf("\nDaemon: not reachable\n")
				return
			}
			fmt.Printf("\nDaemon:\n")
			if v, ok := resp["version"].(string); ok {
				fmt.Printf("  Version:    %s\n", v)
			}
			if c, ok := resp["commit"].(string); ok {
				fmt.Printf("  Commit:     %s\n", c)
			}
			if d, ok := resp["build_date"].(string); ok {
				fmt.Printf("  Build Date: %s\n", d)
			}
		},
	}
}
