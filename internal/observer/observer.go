// Package observer re-renders the control surface when state changes behind
// its back: another writer touching the brightness settings, or a network
// appearing or disappearing.
package observer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// Transport is a network medium the connectivity subscription filters on.
type Transport string

const (
	TransportCellular  Transport = "cellular"
	TransportWiFi      Transport = "wifi"
	TransportBluetooth Transport = "bluetooth"
)

// WatchedTransports are the transports whose networks affect the surface.
var WatchedTransports = []Transport{TransportCellular, TransportWiFi, TransportBluetooth}

// NetworkCallbacks receive network edges for a registered filter.
type NetworkCallbacks struct {
	OnAvailable func(Transport)
	OnLost      func(Transport)
}

// Connectivity delivers network availability changes.
type Connectivity interface {
	// Register starts delivering edges for any of transports. The returned
	// func unregisters.
	Register(transports []Transport, cb NetworkCallbacks) (func(), error)
}

// RenderFunc re-renders the surface. reason names what changed.
type RenderFunc func(ctx context.Context, reason string)

// Observer owns the settings watches and the connectivity registration.
type Observer struct {
	store        settings.Store
	connectivity Connectivity
	render       RenderFunc
	logger       *slog.Logger

	mu        sync.Mutex
	installed bool
	cancels   []func()
}

// New creates an observer. connectivity may be nil.
func New(store settings.Store, connectivity Connectivity, render RenderFunc, logger *slog.Logger) (*Observer, error) {
	if store == nil {
		return nil, errors.InvalidInputf("settings store is required")
	}
	if render == nil {
		return nil, errors.InvalidInputf("render func is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{
		store:        store,
		connectivity: connectivity,
		render:       render,
		logger:       logger.With("component", "observer"),
	}, nil
}

// Install registers every subscription. Installing twice is a no-op. A
// missing connectivity service is logged and the settings watches still apply.
func (o *Observer) Install() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.installed {
		return nil
	}

	var cancels []func()
	for _, key := range settings.BrightnessKeys {
		cancel, err := o.store.Watch(key, o.onSetting)
		if err != nil {
			for _, c := range cancels {
				c()
			}
			return errors.WrapErrorf(err, "watching setting %q", key)
		}
		cancels = append(cancels, cancel)
	}

	if o.connectivity != nil {
		cancel, err := o.connectivity.Register(WatchedTransports, NetworkCallbacks{
			OnAvailable: func(t Transport) { o.onNetwork(t, "available") },
			OnLost:      func(t Transport) { o.onNetwork(t, "lost") },
		})
		switch {
		case err == nil:
			cancels = append(cancels, cancel)
		case errors.IsSubsystemAbsent(err):
			o.logger.Debug("Connectivity subscription unavailable", "error", err)
		default:
			o.logger.Warn("Failed to register connectivity callback", "error", err)
		}
	}

	o.cancels = cancels
	o.installed = true
	o.logger.Debug("Observer installed", "subscriptions", len(cancels))
	return nil
}

// Uninstall removes every subscription. Uninstalling twice is a no-op.
func (o *Observer) Uninstall() {
	o.mu.Lock()
	cancels := o.cancels
	o.cancels = nil
	wasInstalled := o.installed
	o.installed = false
	o.mu.Unlock()

	if !wasInstalled {
		return
	}
	for _, cancel := range cancels {
		cancel()
	}
	o.logger.Debug("Observer uninstalled")
}

// Installed reports whether subscriptions are live.
func (o *Observer) Installed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.installed
}

func (o *Observer) onSetting(key string) {
	o.render(context.Background(), "setting:"+key)
}

func (o *Observer) onNetwork(t Transport, edge string) {
	o.logger.Debug("Network change", "transport", t, "edge", edge)
	o.render(context.Background(), "network:"+string(t)+":"+edge)
}
