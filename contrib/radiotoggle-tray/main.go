// Command radiotoggle-tray shows the radiotoggle control surface as a
// system tray menu.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/systray"
	flag "github.com/spf13/pflag"

	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var opts Options
	flag.StringVar(&opts.APIURL, "api-url", os.Getenv(config.EnvPrefix+"_API_URL"), "radiotoggled HTTP API base URL; live updates use its WebSocket feed")
	flag.StringVar(&opts.APIKey, "api-key", os.Getenv(config.EnvPrefix+"_API_KEY"), "API key for the HTTP API")
	flag.StringVar(&opts.SocketPath, "socket", config.GetRuntimeSocketPath(), "radiotoggled socket, used when no API URL is set")
	flag.DurationVar(&opts.PollInterval, "poll-interval", 2*time.Second, "Socket polling interval")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("radiotoggle-tray %s (commit %s, built %s)\n", version, commit, buildDate)
		return
	}

	logger := utils.SetupLogger(utils.ValidateLogLevel(*logLevel), "text")
	utils.SetAsDefaultLogger(logger)

	release, err := acquireLock(config.GetRuntimeDir())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer release()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := NewApp(logger, opts, version, commit, buildDate)
	tray := NewTrayManager(app)
	app.SetView(tray)

	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() {
		tray.OnReady()
		go app.Run(ctx)
	}, func() {
		tray.OnExit()
		cancel()
	})
}
