// Package surface is the render and dispatch shell of the control surface:
// it turns user actions into tracker requests and turns tracker, brightness
// and observer state into snapshots pushed to every attached host surface.
package surface

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/internal/metrics"
	"github.com/jmylchreest/radiotoggle/internal/observer"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// Sleeper suspends the device.
type Sleeper interface {
	Suspend(ctx context.Context) error
}

// Config carries the collaborators a shell builds its registry from.
type Config struct {
	Store         settings.Store
	Descriptors   []capability.Descriptor
	Limits        brightness.Limits
	AutoAvailable bool

	// Optional collaborators.
	Previewer    brightness.Previewer
	Sleeper      Sleeper
	Notifier     capability.Notifier
	Connectivity observer.Connectivity
	Bus          *events.Bus
	Metrics      *metrics.Metrics

	// Reconciliation tuning; zero values use the defaults.
	MaxAttempts  int
	PollInterval time.Duration
	Sleep        func(time.Duration)
}

// RenderedEvent is the payload of surface.rendered.
type RenderedEvent struct {
	Reason   string   `json:"reason"`
	Snapshot Snapshot `json:"snapshot"`
}

// Shell maps actions to trackers and renders the combined surface.
type Shell struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	registry *Registry
	retired  []*Registry

	surfacesMu sync.Mutex
	surfaces   map[int]Surface
	nextID     int

	// renderMu orders pushes so a snapshot taken earlier is never presented
	// after a later one.
	renderMu sync.Mutex
}

// New validates cfg and returns a disabled shell.
func New(cfg Config, logger *slog.Logger) (*Shell, error) {
	if cfg.Store == nil {
		return nil, errors.InvalidInputf("settings store is required")
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	for _, d := range cfg.Descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		cfg:      cfg,
		logger:   logger,
		surfaces: make(map[int]Surface),
	}, nil
}

// OnEnable builds a fresh registry and installs the observer. Enabling an
// enabled shell is a no-op.
func (s *Shell) OnEnable() error {
	s.mu.Lock()
	if s.registry != nil {
		s.mu.Unlock()
		return nil
	}
	r, err := s.newRegistry()
	if err != nil {
		s.mu.Unlock()
		return errors.LogErrorAndReturn(s.logger, err, "Failed to build registry")
	}
	s.registry = r
	s.mu.Unlock()

	if err := r.observer.Install(); err != nil {
		s.mu.Lock()
		s.registry = nil
		s.mu.Unlock()
		return errors.LogErrorAndReturn(s.logger, err, "Failed to install observer")
	}
	s.logger.Info("Control surface enabled", "capabilities", len(r.trackers))
	return nil
}

// OnDisable tears down the observer and drops the registry. In-flight
// attempts run to completion; their render is then a no-op.
func (s *Shell) OnDisable() {
	s.mu.Lock()
	r := s.registry
	s.registry = nil
	if r != nil {
		s.retired = append(s.retired, r)
	}
	s.mu.Unlock()

	if r == nil {
		return
	}
	r.observer.Uninstall()
	s.logger.Info("Control surface disabled")
}

// Enabled reports whether a registry is live.
func (s *Shell) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry != nil
}

// Registry returns the live registry, or errors.ErrDisabled.
func (s *Shell) Registry() (*Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.registry == nil {
		return nil, errors.ErrDisabled
	}
	return s.registry, nil
}

// Drain waits for every attempt launched by current and past registries.
func (s *Shell) Drain() {
	s.mu.Lock()
	regs := append([]*Registry(nil), s.retired...)
	if s.registry != nil {
		regs = append(regs, s.registry)
	}
	s.retired = nil
	s.mu.Unlock()

	for _, r := range regs {
		r.Wait()
	}
}

// Dispatch runs a user action. Radio toggles return once the attempt is
// launched and render when it finishes; sleep and brightness render
// immediately. Unknown actions are rejected without rendering.
func (s *Shell) Dispatch(ctx context.Context, raw string) error {
	action, err := ParseAction(raw)
	if err != nil {
		s.cfg.Metrics.Dispatched("unknown", "invalid")
		s.logger.Debug("Ignoring unknown action", "action", raw)
		return err
	}

	r, err := s.Registry()
	if err != nil {
		s.cfg.Metrics.Dispatched(string(action), "disabled")
		return err
	}

	if kind, ok := action.Capability(); ok {
		tracker, ok := r.Tracker(kind)
		if !ok {
			s.cfg.Metrics.Dispatched(string(action), "absent")
			s.logger.Debug("No tracker for capability", "capability", kind)
			return nil
		}
		if err := tracker.RequestStateChange(ctx); err != nil {
			s.cfg.Metrics.Dispatched(string(action), "busy")
			s.logger.Info("Toggle rejected", "action", action, "error", err)
			return err
		}
		s.cfg.Metrics.Dispatched(string(action), "ok")
		return nil
	}

	switch action {
	case ActionSleep:
		if s.cfg.Sleeper == nil {
			s.logger.Debug("Sleep unavailable")
		} else if err := s.cfg.Sleeper.Suspend(ctx); err != nil {
			s.logger.Warn("Failed to suspend", "error", err)
		}
	case ActionBrightness:
		r.brightness.Toggle(ctx)
	}
	s.cfg.Metrics.Dispatched(string(action), "ok")
	s.Update(ctx, "dispatch:"+string(action))
	return nil
}

// Render recomputes the snapshot from current state.
func (s *Shell) Render(ctx context.Context) (Snapshot, error) {
	r, err := s.Registry()
	if err != nil {
		return Snapshot{}, err
	}
	return r.render(ctx), nil
}

func (r *Registry) render(ctx context.Context) Snapshot {
	snap := Snapshot{Capabilities: make([]CapabilityView, 0, len(r.trackers))}
	for _, kind := range capability.Kinds {
		t, ok := r.trackers[kind]
		if !ok {
			continue
		}
		intended, set := t.IntendedState()
		snap.Capabilities = append(snap.Capabilities, renderCapability(kind, t.Label(), t.DisplayState(ctx), intended, set))
	}
	snap.Brightness = r.brightness.Display()
	return snap
}

// RenderInto renders and pushes the snapshot into surface.
func (s *Shell) RenderInto(ctx context.Context, surface Surface) error {
	snap, err := s.Render(ctx)
	if err != nil {
		return err
	}
	surface.Present(snap)
	return nil
}

// Attach registers a surface for every future update. The returned func detaches it.
func (s *Shell) Attach(surface Surface) func() {
	s.surfacesMu.Lock()
	id := s.nextID
	s.nextID++
	s.surfaces[id] = surface
	s.surfacesMu.Unlock()

	return func() {
		s.surfacesMu.Lock()
		delete(s.surfaces, id)
		s.surfacesMu.Unlock()
	}
}

// Update renders and pushes the snapshot to every attached surface, then
// publishes surface.rendered. It does nothing while disabled. Updates are
// serialized from render through publish.
func (s *Shell) Update(ctx context.Context, reason string) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	snap, err := s.Render(ctx)
	if err != nil {
		s.logger.Debug("Skipping render", "reason", reason, "error", err)
		return
	}

	s.surfacesMu.Lock()
	ids := make([]int, 0, len(s.surfaces))
	for id := range s.surfaces {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	surfaces := make([]Surface, 0, len(ids))
	for _, id := range ids {
		surfaces = append(surfaces, s.surfaces[id])
	}
	s.surfacesMu.Unlock()

	for _, surface := range surfaces {
		surface.Present(snap)
	}

	trigger, _, _ := strings.Cut(reason, ":")
	s.cfg.Metrics.Rendered(trigger)
	s.cfg.Bus.Publish(events.NewEvent(events.SurfaceRendered, RenderedEvent{Reason: reason, Snapshot: snap}))
	s.logger.Debug("Surface rendered", "reason", reason)
}
