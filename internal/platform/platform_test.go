package platform

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/observer"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedCall struct {
	dest   string
	path   dbus.ObjectPath
	method string
	flags  dbus.Flags
	args   []any
}

// fakeBus answers method calls from a table keyed by "path method" and
// records every call made.
type fakeBus struct {
	mu      sync.Mutex
	calls   []recordedCall
	replies map[string][]any
	errs    map[string]error
}

func newFakeBus() *fakeBus {
	return &fakeBus{replies: map[string][]any{}, errs: map[string]error{}}
}

func (b *fakeBus) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	return &fakeObject{bus: b, dest: dest, path: path}
}

func (b *fakeBus) reply(path dbus.ObjectPath, method string, body ...any) {
	b.replies[string(path)+" "+method] = body
}

func (b *fakeBus) prop(path dbus.ObjectPath, iface, prop string, v any) {
	b.reply(path, propsIface+".Get "+iface+"."+prop, dbus.MakeVariant(v))
}

func (b *fakeBus) Calls() []recordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedCall(nil), b.calls...)
}

type fakeObject struct {
	dbus.BusObject
	bus  *fakeBus
	dest string
	path dbus.ObjectPath
}

func (o *fakeObject) Call(method string, flags dbus.Flags, args ...any) *dbus.Call {
	return o.CallWithContext(context.Background(), method, flags, args...)
}

func (o *fakeObject) CallWithContext(_ context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call {
	o.bus.mu.Lock()
	defer o.bus.mu.Unlock()
	o.bus.calls = append(o.bus.calls, recordedCall{dest: o.dest, path: o.path, method: method, flags: flags, args: args})

	key := string(o.path) + " " + method
	if method == propsIface+".Get" && len(args) == 2 {
		key += " " + args[0].(string) + "." + args[1].(string)
	}
	if err, ok := o.bus.errs[key]; ok {
		return &dbus.Call{Err: err}
	}
	if body, ok := o.bus.replies[key]; ok {
		return &dbus.Call{Body: body}
	}
	if method == propsIface+".Get" {
		return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}}
	}
	return &dbus.Call{}
}

func TestNilConnectionIsAbsent(t *testing.T) {
	ctx := context.Background()
	nm := NewNetworkManager(nil)

	_, err := nm.WiFi().Enabled(ctx)
	assert.True(t, errors.IsSubsystemAbsent(err))
	assert.True(t, errors.IsSubsystemAbsent(nm.MobileData().SetEnabled(ctx, true)))
	_, err = nm.TetherState(ctx)
	assert.True(t, errors.IsSubsystemAbsent(err))

	_, err = NewBluetoothAdapter(nil, "/org/bluez/hci0").Enabled(ctx)
	assert.True(t, errors.IsSubsystemAbsent(err))

	assert.True(t, errors.IsSubsystemAbsent(NewLogind(nil, "intel_backlight").Suspend(ctx)))
	assert.True(t, errors.IsSubsystemAbsent(NewLogind(nil, "intel_backlight").Preview(ctx, 10)))

	_, err = NewConnectivity(nil, testLogger()).Register(observer.WatchedTransports, observer.NetworkCallbacks{})
	assert.True(t, errors.IsSubsystemAbsent(err))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "x"))
	assert.True(t, errors.IsSubsystemAbsent(classify(dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown"}, "x")))
	assert.True(t, errors.IsSubsystemAbsent(classify(&dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownObject"}, "x")))

	err := classify(dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}, "x")
	assert.Error(t, err)
	assert.False(t, errors.IsSubsystemAbsent(err))
}

func TestNetworkManagerRadios(t *testing.T) {
	bus := newFakeBus()
	bus.prop(nmPath, nmIface, "WirelessEnabled", true)
	bus.prop(nmPath, nmIface, "WwanEnabled", false)
	nm := NewNetworkManager(bus)
	ctx := context.Background()

	on, err := nm.WiFi().Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = nm.MobileData().Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, nm.MobileData().SetEnabled(ctx, true))
	calls := bus.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, propsIface+".Set", last.method)
	assert.Equal(t, []any{nmIface, "WwanEnabled", dbus.MakeVariant(true)}, last.args)
}

func TestNetworkManagerHotspot(t *testing.T) {
	active := dbus.ObjectPath("/org/freedesktop/NetworkManager/ActiveConnection/3")
	settingsPath := dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings/7")

	bus := newFakeBus()
	bus.prop(nmPath, nmIface, "ActiveConnections", []dbus.ObjectPath{active})
	bus.prop(active, nmActiveIface, "Type", "802-11-wireless")
	bus.prop(active, nmActiveIface, "Connection", settingsPath)
	bus.prop(active, nmActiveIface, "State", uint32(2))
	bus.reply(settingsPath, nmSettingsConnIface+".GetSettings", map[string]map[string]dbus.Variant{
		"802-11-wireless": {"mode": dbus.MakeVariant("ap")},
	})
	nm := NewNetworkManager(bus)
	ctx := context.Background()

	state, err := nm.TetherState(ctx)
	require.NoError(t, err)
	assert.Equal(t, capability.TetherEnabled, state)

	require.NoError(t, nm.StopTethering(ctx))
	calls := bus.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, nmIface+".DeactivateConnection", last.method)
	assert.Equal(t, []any{active}, last.args)
}

func TestNetworkManagerNoHotspot(t *testing.T) {
	active := dbus.ObjectPath("/org/freedesktop/NetworkManager/ActiveConnection/1")
	settingsPath := dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings/1")

	bus := newFakeBus()
	bus.prop(nmPath, nmIface, "ActiveConnections", []dbus.ObjectPath{active})
	bus.prop(active, nmActiveIface, "Type", "802-11-wireless")
	bus.prop(active, nmActiveIface, "Connection", settingsPath)
	bus.reply(settingsPath, nmSettingsConnIface+".GetSettings", map[string]map[string]dbus.Variant{
		"802-11-wireless": {"mode": dbus.MakeVariant("infrastructure")},
	})
	nm := NewNetworkManager(bus)

	state, err := nm.TetherState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, capability.TetherDisabled, state)
	require.NoError(t, nm.StopTethering(context.Background()))
	for _, c := range bus.Calls() {
		assert.NotEqual(t, nmIface+".DeactivateConnection", c.method)
	}
}

func TestTetherStateFromActive(t *testing.T) {
	assert.Equal(t, capability.TetherDisabled, tetherStateFromActive(0))
	assert.Equal(t, capability.TetherEnabling, tetherStateFromActive(1))
	assert.Equal(t, capability.TetherEnabled, tetherStateFromActive(2))
	assert.Equal(t, capability.TetherDisabling, tetherStateFromActive(3))
	assert.Equal(t, capability.TetherDisabled, tetherStateFromActive(4))
}

func TestBluetoothAdapter(t *testing.T) {
	bus := newFakeBus()
	path := dbus.ObjectPath("/org/bluez/hci1")
	bus.prop(path, bluezAdapterIface, "Powered", false)
	bt := NewBluetoothAdapter(bus, string(path))
	ctx := context.Background()

	on, err := bt.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, bt.SetEnabled(ctx, true))
	calls := bus.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, bluezBusName, last.dest)
	assert.Equal(t, path, last.path)
	assert.Equal(t, []any{bluezAdapterIface, "Powered", dbus.MakeVariant(true)}, last.args)

	_, err = NewBluetoothAdapter(bus, "/org/bluez/hci9").Enabled(ctx)
	assert.True(t, errors.IsSubsystemAbsent(err))
}

func TestLogind(t *testing.T) {
	bus := newFakeBus()
	l := NewLogind(bus, "intel_backlight")
	ctx := context.Background()

	require.NoError(t, l.Suspend(ctx))
	require.NoError(t, l.Preview(ctx, 120))

	calls := bus.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, logindManagerIface+".Suspend", calls[0].method)
	assert.Equal(t, []any{false}, calls[0].args)
	assert.Equal(t, logindSessionPath, calls[1].path)
	assert.Equal(t, []any{"backlight", "intel_backlight", uint32(120)}, calls[1].args)

	assert.True(t, errors.IsSubsystemAbsent(NewLogind(bus, "").Preview(ctx, 1)))
}

func TestNotifier(t *testing.T) {
	bus := newFakeBus()
	n := NewNotifier(bus, "radiotoggle", true, testLogger())
	n.Notify(context.Background(), "Cannot change Wi-Fi state.")

	calls := bus.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, notifyIface+".Notify", calls[0].method)
	assert.Equal(t, dbus.FlagNoReplyExpected, calls[0].flags)
	assert.Equal(t, "Cannot change Wi-Fi state.", calls[0].args[4])

	disabled := newFakeBus()
	NewNotifier(disabled, "radiotoggle", false, testLogger()).Notify(context.Background(), "x")
	assert.Empty(t, disabled.Calls())

	// No session bus: logged only.
	NewNotifier(nil, "radiotoggle", true, testLogger()).Notify(context.Background(), "x")
}

func TestDescriptorsWiring(t *testing.T) {
	descs := Descriptors(NewNetworkManager(nil), NewBluetoothAdapter(nil, "/org/bluez/hci0"), testLogger())
	require.Len(t, descs, 3)
	assert.Equal(t, capability.WiFi, descs[0].Kind)
	assert.NotNil(t, descs[0].Prepare)
	assert.Equal(t, capability.Bluetooth, descs[1].Kind)
	assert.Nil(t, descs[1].Prepare)
	assert.Equal(t, capability.MobileData, descs[2].Kind)
	for _, d := range descs {
		assert.NoError(t, d.Validate())
	}
}

func TestBacklight(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "intel_backlight"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acpi_video0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "acpi_video0", "max_brightness"), []byte("15\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "intel_backlight", "max_brightness"), []byte("1020\n"), 0o644))

	auto := NewBacklight(root, "")
	assert.Equal(t, "acpi_video0", auto.Device())

	b := NewBacklight(root, "intel_backlight")
	max, err := b.MaxBrightness()
	require.NoError(t, err)
	assert.Equal(t, 1020, max)

	limits := b.Limits(brightness.Limits{Min: 10, Default: 102, Max: 255})
	assert.Equal(t, brightness.Limits{Min: 40, Default: 408, Max: 1020}, limits)
}

func TestBacklightAbsent(t *testing.T) {
	b := NewBacklight(t.TempDir(), "")
	assert.Equal(t, "", b.Device())
	_, err := b.MaxBrightness()
	assert.True(t, errors.IsSubsystemAbsent(err))

	fallback := brightness.Limits{Min: 10, Default: 102, Max: 255}
	assert.Equal(t, fallback, b.Limits(fallback))
}

func TestDeviceEdges(t *testing.T) {
	available, lost := deviceEdge(100, 70)
	assert.True(t, available)
	assert.False(t, lost)

	available, lost = deviceEdge(30, 100)
	assert.False(t, available)
	assert.True(t, lost)

	available, lost = deviceEdge(70, 50)
	assert.False(t, available)
	assert.False(t, lost)

	available, lost = deviceEdge(100, 100)
	assert.False(t, available)
	assert.False(t, lost)
}

func TestStateChangeBody(t *testing.T) {
	n, o, ok := stateChangeBody([]any{uint32(100), uint32(70), uint32(0)})
	assert.True(t, ok)
	assert.Equal(t, uint32(100), n)
	assert.Equal(t, uint32(70), o)

	_, _, ok = stateChangeBody([]any{"x"})
	assert.False(t, ok)
}

func TestTransportForDeviceType(t *testing.T) {
	tr, ok := transportForDeviceType(2)
	assert.True(t, ok)
	assert.Equal(t, observer.TransportWiFi, tr)
	tr, _ = transportForDeviceType(5)
	assert.Equal(t, observer.TransportBluetooth, tr)
	tr, _ = transportForDeviceType(8)
	assert.Equal(t, observer.TransportCellular, tr)
	_, ok = transportForDeviceType(1)
	assert.False(t, ok, "ethernet is not watched")
}

// fakeSignalBus routes signals to registered channels.
type fakeSignalBus struct {
	*fakeBus
	chans   []chan<- *dbus.Signal
	matches int
}

func (b *fakeSignalBus) AddMatchSignal(...dbus.MatchOption) error    { b.matches++; return nil }
func (b *fakeSignalBus) RemoveMatchSignal(...dbus.MatchOption) error { b.matches--; return nil }

func (b *fakeSignalBus) Signal(ch chan<- *dbus.Signal) {
	b.mu.Lock()
	b.chans = append(b.chans, ch)
	b.mu.Unlock()
}

func (b *fakeSignalBus) RemoveSignal(ch chan<- *dbus.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.chans {
		if c == ch {
			b.chans = append(b.chans[:i], b.chans[i+1:]...)
			return
		}
	}
}

func (b *fakeSignalBus) emit(sig *dbus.Signal) {
	b.mu.Lock()
	chans := append([]chan<- *dbus.Signal(nil), b.chans...)
	b.mu.Unlock()
	for _, c := range chans {
		c <- sig
	}
}

func TestConnectivityDeliversEdges(t *testing.T) {
	wifiDev := dbus.ObjectPath("/org/freedesktop/NetworkManager/Devices/2")
	ethDev := dbus.ObjectPath("/org/freedesktop/NetworkManager/Devices/1")
	bus := &fakeSignalBus{fakeBus: newFakeBus()}
	bus.prop(wifiDev, nmDeviceIface, "DeviceType", nmDeviceTypeWiFi)
	bus.prop(ethDev, nmDeviceIface, "DeviceType", uint32(1))

	edges := make(chan string, 8)
	c := NewConnectivity(bus, testLogger())
	unregister, err := c.Register(observer.WatchedTransports, observer.NetworkCallbacks{
		OnAvailable: func(t observer.Transport) { edges <- "available:" + string(t) },
		OnLost:      func(t observer.Transport) { edges <- "lost:" + string(t) },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bus.matches)

	stateChanged := func(path dbus.ObjectPath, n, o uint32) *dbus.Signal {
		return &dbus.Signal{Path: path, Name: nmDeviceStateChanged, Body: []any{n, o, uint32(0)}}
	}
	bus.emit(stateChanged(ethDev, 100, 70))
	bus.emit(stateChanged(wifiDev, 70, 50))
	bus.emit(stateChanged(wifiDev, 100, 70))
	bus.emit(stateChanged(wifiDev, 30, 100))

	for _, want := range []string{"available:wifi", "lost:wifi"} {
		select {
		case got := <-edges:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("missing edge %s", want)
		}
	}

	unregister()
	unregister()
	assert.Equal(t, 0, bus.matches)
	assert.Empty(t, bus.chans)
	select {
	case extra := <-edges:
		t.Fatalf("unexpected edge %s", extra)
	default:
	}
}
