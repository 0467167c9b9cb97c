package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/pkg/client"
)

// view is the part of the tray the app drives.
type view interface {
	surface.Surface
	SetConnected(connected bool)
}

// Options configure how the tray reaches radiotoggled.
type Options struct {
	// APIURL selects the HTTP API and its WebSocket feed. When empty the
	// socket at SocketPath is polled instead.
	APIURL       string
	APIKey       string
	SocketPath   string
	PollInterval time.Duration
}

// App owns the daemon connection and pushes snapshots into the tray.
type App struct {
	logger    *slog.Logger
	version   string
	commit    string
	buildDate string
	opts      Options
	client    client.ClientInterface
	dialer    *websocket.Dialer

	mu        sync.Mutex
	view      view
	snap      surface.Snapshot
	hasSnap   bool
	connected bool
}

// NewApp creates the app. The client follows opts: HTTP when an API URL is
// set, the Unix socket otherwise.
func NewApp(logger *slog.Logger, opts Options, version, commit, buildDate string) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	var c client.ClientInterface
	if opts.APIURL != "" {
		c = client.NewHTTP(logger, opts.APIURL, opts.APIKey)
	} else {
		c = client.New(logger, opts.SocketPath)
	}
	return &App{
		logger:    logger,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		opts:      opts,
		client:    c,
		dialer:    websocket.DefaultDialer,
	}
}

// SetView attaches the tray. The last snapshot, if any, is replayed.
func (a *App) SetView(v view) {
	a.mu.Lock()
	a.view = v
	snap, has, connected := a.snap, a.hasSnap, a.connected
	a.mu.Unlock()

	if v == nil {
		return
	}
	v.SetConnected(connected)
	if has {
		v.Present(snap)
	}
}

// GetVersion returns the app version
func (a *App) GetVersion() string {
	return fmt.Sprintf("%s, commit: %s, date: %s", a.version, a.commit, a.buildDate)
}

// Snapshot returns the last snapshot received from the daemon.
func (a *App) Snapshot() (surface.Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap, a.hasSnap
}

// Run keeps the tray current until ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	if a.opts.APIURL != "" {
		a.runFeed(ctx)
		return
	}
	a.runPoll(ctx)
}

// Press dispatches one control. In poll mode the surface is re-read right
// away; the feed delivers the change otherwise.
func (a *App) Press(action surface.Action) {
	accepted, err := a.client.Dispatch(string(action))
	if err != nil {
		a.logger.Warn("Failed to dispatch action", "action", action, "error", err)
	} else {
		a.logger.Debug("Action accepted", "action", accepted)
	}
	if a.opts.APIURL == "" {
		a.refresh()
	}
}

func (a *App) present(snap surface.Snapshot) {
	a.mu.Lock()
	a.snap = snap
	a.hasSnap = true
	v := a.view
	a.mu.Unlock()

	a.setConnected(true)
	if v != nil {
		v.Present(snap)
	}
}

func (a *App) setConnected(connected bool) {
	a.mu.Lock()
	changed := a.connected != connected
	a.connected = connected
	v := a.view
	a.mu.Unlock()

	if !changed {
		return
	}
	if connected {
		a.logger.Info("Connected to radiotoggled")
	} else {
		a.logger.Warn("Lost connection to radiotoggled")
	}
	if v != nil {
		v.SetConnected(connected)
	}
}

func (a *App) refresh() {
	snap, err := a.client.GetSurface()
	if err != nil {
		a.logger.Debug("Failed to read surface", "error", err)
		a.setConnected(false)
		return
	}
	a.present(snap)
}

// runPoll re-reads the surface on a ticker, and immediately when the
// daemon's socket is created.
func (a *App) runPoll(ctx context.Context) {
	var created <-chan fsnotify.Event
	var watchErrs <-chan error
	if a.opts.SocketPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			defer func() {
				_ = watcher.Close()
			}()
			if err := watcher.Add(filepath.Dir(a.opts.SocketPath)); err != nil {
				a.logger.Debug("Not watching socket directory", "error", err)
			} else {
				created, watchErrs = watcher.Events, watcher.Errors
			}
		}
	}

	ticker := time.NewTicker(a.opts.PollInterval)
	defer ticker.Stop()

	a.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh()
		case event, ok := <-created:
			if !ok {
				created = nil
				continue
			}
			if event.Name == a.opts.SocketPath && event.Has(fsnotify.Create) {
				a.logger.Debug("Daemon socket appeared", "path", event.Name)
				a.refresh()
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			a.logger.Debug("Socket watcher error", "error", err)
		}
	}
}

// runFeed follows the WebSocket feed, reconnecting with backoff.
func (a *App) runFeed(ctx context.Context) {
	const maxBackoff = 30 * time.Second
	backoff := time.Second
	for {
		err := a.readFeed(ctx)
		if ctx.Err() != nil {
			return
		}
		a.setConnected(false)
		if errors.Is(err, errFeedEstablished) {
			backoff = time.Second
		}
		a.logger.Debug("Feed closed, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
