package main

import (
	_ "embed"
	"strconv"
	"strings"
	"sync"

	"fyne.io/systray"

	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

//go:embed assets/radio-on.png
var iconEnabled []byte

//go:embed assets/radio-off.png
var iconDisabled []byte

//go:embed assets/radio-unknown.png
var iconUnknown []byte

// TrayManager renders the surface as a tray menu, one item per action.
type TrayManager struct {
	mu        sync.Mutex
	app       *App
	mStatus   *systray.MenuItem
	mQuit     *systray.MenuItem
	items     map[surface.Action]*systray.MenuItem
	stopChan  chan struct{}
	ready     bool
	pending   *surface.Snapshot
	connected bool
}

// NewTrayManager creates a new tray manager
func NewTrayManager(app *App) *TrayManager {
	return &TrayManager{
		app:      app,
		items:    make(map[surface.Action]*systray.MenuItem),
		stopChan: make(chan struct{}),
	}
}

// OnReady is called when systray is ready
func (t *TrayManager) OnReady() {
	systray.SetIcon(iconUnknown)
	systray.SetTitle("Radios")
	systray.SetTooltip("radiotoggle")

	t.mu.Lock()
	defer t.mu.Unlock()

	t.mStatus = systray.AddMenuItem(statusTitle(t.connected), "Daemon connection")
	t.mStatus.Disable()
	systray.AddSeparator()

	for _, action := range surface.Actions {
		title := actionTitle(action, surface.Snapshot{}, false)
		var item *systray.MenuItem
		if _, isRadio := action.Capability(); isRadio {
			item = systray.AddMenuItemCheckbox(title, "Toggle "+title, false)
		} else {
			item = systray.AddMenuItem(title, "")
		}
		t.items[action] = item
		go t.handleMenuItem(action, item)
	}

	systray.AddSeparator()
	t.mQuit = systray.AddMenuItem("Quit", "Quit the application")
	go t.handleQuit()

	t.ready = true
	if t.pending != nil {
		t.apply(*t.pending)
		t.pending = nil
	}
}

// OnExit is called when systray exits
func (t *TrayManager) OnExit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.stopChan:
	default:
		close(t.stopChan)
	}
}

// Present implements surface.Surface.
func (t *TrayManager) Present(snap surface.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		t.pending = &snap
		return
	}
	t.apply(snap)
}

// SetConnected updates the status line and falls back to the unknown icon
// while the daemon is unreachable.
func (t *TrayManager) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
	if !t.ready {
		return
	}
	t.mStatus.SetTitle(statusTitle(connected))
	if !connected {
		systray.SetIcon(iconUnknown)
		systray.SetTooltip("radiotoggle: daemon not reachable")
		for _, item := range t.items {
			item.Disable()
		}
	}
}

func (t *TrayManager) apply(snap surface.Snapshot) {
	for action, item := range t.items {
		item.SetTitle(actionTitle(action, snap, true))
		if actionEnabled(action, snap) {
			item.Enable()
		} else {
			item.Disable()
		}
		if kind, ok := action.Capability(); ok {
			if v, ok := snap.Capability(kind); ok && v.State == capability.On {
				item.Check()
			} else {
				item.Uncheck()
			}
		}
	}
	systray.SetIcon(iconFor(snap))
	systray.SetTooltip(tooltipFor(snap))
}

func (t *TrayManager) handleMenuItem(action surface.Action, item *systray.MenuItem) {
	for {
		select {
		case <-item.ClickedCh:
			go t.app.Press(action)
		case <-t.stopChan:
			return
		}
	}
}

func (t *TrayManager) handleQuit() {
	select {
	case <-t.mQuit.ClickedCh:
		systray.Quit()
	case <-t.stopChan:
	}
}

func statusTitle(connected bool) string {
	if connected {
		return "radiotoggled: connected"
	}
	return "radiotoggled: not reachable"
}

// actionTitle names a menu item, e.g. "Wi-Fi: on" or "Bluetooth: switching…".
func actionTitle(action surface.Action, snap surface.Snapshot, known bool) string {
	if kind, ok := action.Capability(); ok {
		if !known {
			return kind.Label()
		}
		v, ok := snap.Capability(kind)
		if !ok {
			return kind.Label()
		}
		return v.Label + ": " + stateText(v.State)
	}
	switch action {
	case surface.ActionSleep:
		return "Sleep"
	case surface.ActionBrightness:
		if !known {
			return "Brightness"
		}
		return "Brightness: " + brightnessText(snap.Brightness)
	}
	return string(action)
}

func stateText(s capability.DisplayState) string {
	switch s {
	case capability.On:
		return "on"
	case capability.Transitioning:
		return "switching…"
	default:
		return "off"
	}
}

func brightnessText(v brightness.View) string {
	if v.Mode == brightness.Automatic {
		return "auto"
	}
	return strconv.Itoa(v.Level)
}

// actionEnabled greys out radios that are already switching.
func actionEnabled(action surface.Action, snap surface.Snapshot) bool {
	kind, ok := action.Capability()
	if !ok {
		return true
	}
	v, ok := snap.Capability(kind)
	return !ok || v.State != capability.Transitioning
}

func iconFor(snap surface.Snapshot) []byte {
	for _, c := range snap.Capabilities {
		if c.State == capability.On {
			return iconEnabled
		}
	}
	return iconDisabled
}

func tooltipFor(snap surface.Snapshot) string {
	var b strings.Builder
	b.WriteString("radiotoggle")
	for _, c := range snap.Capabilities {
		b.WriteString("\n" + c.Label + ": " + stateText(c.State))
	}
	b.WriteString("\nBrightness: " + brightnessText(snap.Brightness))
	return b.String()
}
