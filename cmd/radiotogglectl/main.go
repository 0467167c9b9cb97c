package main

import (
	"os"

	"github.com/jmylchreest/radiotoggle/cmd/radiotogglectl/commands"
	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load(config.ClientConfigFilename, os.Getenv(config.EnvPrefix+"_CTL_CONFIG"))
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	rootCmd := commands.NewRootCommand(logger, cfg, version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
