package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/apikey"
	"github.com/jmylchreest/radiotoggle/internal/config"
	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/internal/http/handlers"
	"github.com/jmylchreest/radiotoggle/internal/metrics"
	"github.com/jmylchreest/radiotoggle/internal/mqtt"
	"github.com/jmylchreest/radiotoggle/internal/platform"
	"github.com/jmylchreest/radiotoggle/internal/server"
	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// drainTimeout bounds how long shutdown waits for in-flight radio toggles.
const drainTimeout = 20 * time.Second

// daemon owns every long-lived component and their start/stop order.
type daemon struct {
	logger *slog.Logger
	cfg    *config.Config
	buses  *platform.Buses
	store  *settings.FileStore
	shell  *surface.Shell
	server *server.Server
	bus    *events.Bus

	mqttClient *mqtt.Client
	bridge     *mqtt.Bridge
	detach     func()
}

func brightnessLimits(cfg *config.Config, backlight *platform.Backlight) brightness.Limits {
	return backlight.Limits(brightness.Limits{
		Min:     cfg.Brightness.Minimum,
		Default: cfg.Brightness.Default,
		Max:     cfg.Brightness.Maximum,
	})
}

func newDaemon(cfg *config.Config, logger *slog.Logger, buses *platform.Buses) (*daemon, error) {
	store, err := settings.NewFileStore(cfg.Settings.Path, logger)
	if err != nil {
		return nil, err
	}

	system := buses.SystemConn()
	nm := platform.NewNetworkManager(system)
	bt := platform.NewBluetoothAdapter(system, cfg.Bluetooth.Adapter)
	backlight := platform.NewBacklight("", cfg.Brightness.Device)
	logind := platform.NewLogind(system, backlight.Device())

	bus := events.NewBus()
	m := metrics.New()

	shell, err := surface.New(surface.Config{
		Store:         store,
		Descriptors:   platform.Descriptors(nm, bt, logger),
		Limits:        brightnessLimits(cfg, backlight),
		AutoAvailable: cfg.Brightness.AutoAvailable,
		Previewer:     logind,
		Sleeper:       logind,
		Notifier:      platform.NewNotifier(buses.SessionConn(), "radiotoggle", cfg.Notifications.Enabled, logger),
		Connectivity:  platform.NewConnectivity(system, logger),
		Bus:           bus,
		Metrics:       m,
		MaxAttempts:   cfg.Reconcile.MaxAttempts,
		PollInterval:  cfg.Reconcile.PollInterval,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	srv := server.New(logger, cfg, server.Deps{
		Shell:   shell,
		Store:   store,
		APIKeys: apikey.NewManager(cfg, logger),
		Bus:     bus,
		Metrics: m,
		Version: handlers.VersionInfo{Version: version, Commit: commit, BuildDate: buildDate},
	})

	return &daemon{
		logger: logger,
		cfg:    cfg,
		buses:  buses,
		store:  store,
		shell:  shell,
		server: srv,
		bus:    bus,
	}, nil
}

// Start enables the surface, then the listeners, then the optional MQTT bridge.
func (d *daemon) Start() error {
	if err := d.shell.OnEnable(); err != nil {
		return err
	}
	if err := d.server.Start(); err != nil {
		return err
	}
	if d.cfg.MQTT.Broker != "" {
		if err := d.startMQTT(); err != nil {
			// The broker is optional; the local surfaces keep working.
			d.logger.Warn("MQTT bridge disabled", "error", err)
		}
	}
	d.shell.Update(context.Background(), "startup")
	return nil
}

func (d *daemon) startMQTT() error {
	prefix := d.cfg.MQTT.TopicPrefix
	if prefix == "" {
		prefix = config.DefaultMQTTTopicPrefix
	}
	client, err := mqtt.Connect(mqtt.Options{
		Broker:    d.cfg.MQTT.Broker,
		ClientID:  d.cfg.MQTT.ClientID,
		Username:  d.cfg.MQTT.Username,
		Password:  d.cfg.MQTT.Password,
		WillTopic: prefix + "/" + mqtt.TopicAvailability,
	}, d.logger)
	if err != nil {
		return err
	}
	bridge := mqtt.NewBridge(client, d.shell, prefix, d.logger)
	if err := bridge.Start(); err != nil {
		client.Close(0)
		return err
	}
	d.mqttClient = client
	d.bridge = bridge
	d.detach = d.shell.Attach(bridge)
	return nil
}

// Stop tears everything down in reverse order. In-flight toggles get
// drainTimeout to settle before the buses close under them.
func (d *daemon) Stop() {
	d.shell.OnDisable()

	done := make(chan struct{})
	go func() {
		d.shell.Drain()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		d.logger.Warn("Timed out waiting for radio toggles to settle")
	}

	if d.detach != nil {
		d.detach()
	}
	if d.bridge != nil {
		d.bridge.Stop()
	}
	if d.mqttClient != nil {
		d.mqttClient.Close(250 * time.Millisecond)
	}

	d.server.Stop()
	if err := d.store.Close(); err != nil {
		d.logger.Debug("Failed to close settings store", "error", err)
	}
	d.buses.Close()
	d.logger.Info("radiotoggled stopped")
}
