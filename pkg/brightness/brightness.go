// Package brightness rotates the screen through automatic, minimum, default
// and maximum brightness, persisting every step in the settings store.
package brightness

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// Mode is the brightness mode.
type Mode string

const (
	Automatic Mode = "auto"
	Manual    Mode = "manual"
)

// Limits are the device brightness levels the rotation steps through.
type Limits struct {
	Min     int `json:"min"`
	Default int `json:"default"`
	Max     int `json:"max"`
}

// Validate checks the limits are ordered and positive.
func (l Limits) Validate() error {
	if l.Max <= 0 {
		return errors.InvalidInputf("maximum brightness must be positive, got %d", l.Max)
	}
	if l.Min < 0 || l.Min > l.Default || l.Default > l.Max {
		return errors.InvalidInputf("brightness limits must satisfy 0 <= min <= default <= max, got %d/%d/%d", l.Min, l.Default, l.Max)
	}
	return nil
}

// HalfThreshold is the level above which the icon shows half brightness.
func (l Limits) HalfThreshold() int {
	return int(0.3 * float64(l.Max))
}

// FullThreshold is the level above which the icon shows full brightness.
func (l Limits) FullThreshold() int {
	return int(0.8 * float64(l.Max))
}

// State is a brightness setting.
type State struct {
	Mode  Mode `json:"mode"`
	Level int  `json:"level"`
}

// Previewer applies a level to the panel immediately, ahead of whatever
// consumes the settings store.
type Previewer interface {
	Preview(ctx context.Context, level int) error
}

// Controller owns the brightness rotation.
type Controller struct {
	store         settings.Store
	limits        Limits
	autoAvailable bool
	previewer     Previewer
	bus           *events.Bus
	logger        *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPreviewer sets the live preview backend.
func WithPreviewer(p Previewer) Option {
	return func(c *Controller) { c.previewer = p }
}

// WithEventBus publishes brightness.changed after each toggle.
func WithEventBus(bus *events.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// NewController creates a controller over store.
func NewController(store settings.Store, limits Limits, autoAvailable bool, logger *slog.Logger, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.InvalidInputf("settings store is required")
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		store:         store,
		limits:        limits,
		autoAvailable: autoAvailable,
		logger:        logger.With("component", "brightness"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Limits returns the configured levels.
func (c *Controller) Limits() Limits {
	return c.limits
}

// AutoAvailable reports whether the platform supports automatic mode.
func (c *Controller) AutoAvailable() bool {
	return c.autoAvailable
}

// Current reads the stored state, falling back to manual at level 0.
func (c *Controller) Current() State {
	level, err := c.store.GetInt(settings.KeyBrightness)
	if err != nil {
		c.logger.Debug("Brightness level unavailable, using 0", "error", err)
		level = 0
	}

	mode := Manual
	if c.autoAvailable {
		m, err := c.store.GetInt(settings.KeyBrightnessMode)
		if err != nil {
			c.logger.Debug("Brightness mode unavailable, using manual", "error", err)
		} else if m == settings.ModeAutomatic {
			mode = Automatic
		}
	}
	return State{Mode: mode, Level: level}
}

// Next returns the state that follows s in the rotation.
func (c *Controller) Next(s State) State {
	switch {
	case s.Mode == Automatic:
		return State{Mode: Manual, Level: c.limits.Min}
	case s.Level < c.limits.Default:
		return State{Mode: Manual, Level: c.limits.Default}
	case s.Level < c.limits.Max:
		return State{Mode: Manual, Level: c.limits.Max}
	case c.autoAvailable:
		return State{Mode: Automatic, Level: c.limits.Min}
	default:
		return State{Mode: Manual, Level: c.limits.Min}
	}
}

// Toggle advances the rotation and persists the result. Store and preview
// failures are logged and never returned.
func (c *Controller) Toggle(ctx context.Context) State {
	prev := c.Current()
	next := c.Next(prev)

	// The mode is written last when landing on manual and first when landing
	// on automatic, so watchers never see a manual mode with a stale level.
	if next.Mode == Manual {
		c.putLevel(next.Level)
		c.putMode(next.Mode)
	} else {
		c.putMode(next.Mode)
		c.putLevel(next.Level)
	}

	if next.Mode == Manual && c.previewer != nil {
		if err := c.previewer.Preview(ctx, next.Level); err != nil {
			c.logger.Debug("Brightness preview unavailable", "level", next.Level, "error", err)
		}
	}

	c.logger.Info("Brightness toggled", "from_mode", prev.Mode, "from_level", prev.Level, "mode", next.Mode, "level", next.Level)
	c.bus.Publish(events.NewEvent(events.BrightnessChanged, next))
	return next
}

func (c *Controller) putMode(m Mode) {
	if !c.autoAvailable {
		return
	}
	mode := settings.ModeManual
	if m == Automatic {
		mode = settings.ModeAutomatic
	}
	if err := c.store.PutInt(settings.KeyBrightnessMode, mode); err != nil {
		c.logger.Warn("Failed to persist brightness mode", "error", err)
	}
}

func (c *Controller) putLevel(level int) {
	if err := c.store.PutInt(settings.KeyBrightness, level); err != nil {
		c.logger.Warn("Failed to persist brightness level", "error", err)
	}
}
