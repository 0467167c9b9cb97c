package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/platform"
	"github.com/jmylchreest/radiotoggle/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	v := viper.New()
	flags := newFlagSet()
	_ = flags.Parse(os.Args[1:])
	bindFlags(v, flags)

	cfg, err := config.Load(config.DaemonConfigFilename, v.GetString("config"))
	if err != nil {
		utils.SetupErrorLogger().Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyOverrides(cfg, v, flags)

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	logger.Info("Starting radiotoggled",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	buses := platform.ConnectBuses(logger)
	d, err := newDaemon(cfg, logger, buses)
	if err != nil {
		logger.Error("Failed to initialise daemon", "error", err)
		buses.Close()
		os.Exit(1)
	}

	if err := d.Start(); err != nil {
		logger.Error("Failed to start daemon", "error", err)
		d.Stop()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down...", "signal", sig.String())
	d.Stop()
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("radiotoggled", pflag.ContinueOnError)
	flags.String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.LogFormatText, "Log format (text, json)")
	flags.String("config", "", "Path to config file")
	flags.String("listen", "", "HTTP API listen address, e.g. :9123 (empty disables the API)")
	flags.String("socket", "", "Unix socket path")
	return flags
}

// bindFlags lets flags take precedence over the file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("api.listen_address", flags.Lookup("listen"))
	_ = v.BindPFlag("server.unix_socket", flags.Lookup("socket"))
}

// applyOverrides copies explicitly set flags onto the loaded config.
func applyOverrides(cfg *config.Config, v *viper.Viper, flags *pflag.FlagSet) {
	if flags.Changed("log-level") {
		cfg.Logging.Level = utils.ValidateLogLevel(v.GetString("logging.level"))
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = utils.ValidateLogFormat(v.GetString("logging.format"))
	}
	if flags.Changed("listen") {
		cfg.API.ListenAddress = v.GetString("api.listen_address")
	}
	if flags.Changed("socket") {
		cfg.Server.UnixSocket = v.GetString("server.unix_socket")
	}
}
