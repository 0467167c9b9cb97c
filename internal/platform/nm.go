package platform

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

const (
	nmBusName           = "org.freedesktop.NetworkManager"
	nmPath              = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface             = "org.freedesktop.NetworkManager"
	nmActiveIface       = "org.freedesktop.NetworkManager.Connection.Active"
	nmSettingsConnIface = "org.freedesktop.NetworkManager.Settings.Connection"
	nmDeviceIface       = "org.freedesktop.NetworkManager.Device"
)

// NM_ACTIVE_CONNECTION_STATE values.
const (
	nmActiveActivating   uint32 = 1
	nmActiveActivated    uint32 = 2
	nmActiveDeactivating uint32 = 3
)

// NetworkManager controls the Wi-Fi and WWAN radios and the Wi-Fi hotspot.
type NetworkManager struct {
	conn BusConn
}

// NewNetworkManager binds to NetworkManager on conn, which may be nil.
func NewNetworkManager(conn BusConn) *NetworkManager {
	return &NetworkManager{conn: conn}
}

// WiFi returns the Wi-Fi radio.
func (n *NetworkManager) WiFi() capability.Radio {
	return &nmRadio{nm: n, prop: "WirelessEnabled"}
}

// MobileData returns the WWAN radio.
func (n *NetworkManager) MobileData() capability.Radio {
	return &nmRadio{nm: n, prop: "WwanEnabled"}
}

type nmRadio struct {
	nm   *NetworkManager
	prop string
}

func (r *nmRadio) Enabled(ctx context.Context) (bool, error) {
	return getBool(ctx, r.nm.conn, nmBusName, nmPath, nmIface, r.prop)
}

func (r *nmRadio) SetEnabled(ctx context.Context, enabled bool) error {
	return setProperty(ctx, r.nm.conn, nmBusName, nmPath, nmIface, r.prop, enabled)
}

// TetherState reports the state of the first access-point connection, if any.
func (n *NetworkManager) TetherState(ctx context.Context) (capability.TetherState, error) {
	path, state, err := n.hotspot(ctx)
	if err != nil {
		return capability.TetherDisabled, err
	}
	if path == "" {
		return capability.TetherDisabled, nil
	}
	return tetherStateFromActive(state), nil
}

// StopTethering deactivates the access-point connection.
func (n *NetworkManager) StopTethering(ctx context.Context) error {
	path, _, err := n.hotspot(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	call := n.conn.Object(nmBusName, nmPath).CallWithContext(ctx, nmIface+".DeactivateConnection", 0, path)
	return classify(call.Err, "deactivate hotspot")
}

// hotspot finds the active connection whose Wi-Fi mode is "ap".
func (n *NetworkManager) hotspot(ctx context.Context) (dbus.ObjectPath, uint32, error) {
	v, err := getProperty(ctx, n.conn, nmBusName, nmPath, nmIface, "ActiveConnections")
	if err != nil {
		return "", 0, err
	}
	active, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return "", 0, errors.Internalf("ActiveConnections is %s", v.Signature())
	}

	for _, path := range active {
		typ, err := getProperty(ctx, n.conn, nmBusName, path, nmActiveIface, "Type")
		if err != nil || typ.Value() != "802-11-wireless" {
			continue
		}
		connV, err := getProperty(ctx, n.conn, nmBusName, path, nmActiveIface, "Connection")
		if err != nil {
			continue
		}
		settingsPath, ok := connV.Value().(dbus.ObjectPath)
		if !ok {
			continue
		}

		var conf map[string]map[string]dbus.Variant
		err = n.conn.Object(nmBusName, settingsPath).CallWithContext(ctx, nmSettingsConnIface+".GetSettings", 0).Store(&conf)
		if err != nil || !isAccessPoint(conf) {
			continue
		}

		state, err := getUint32(ctx, n.conn, nmBusName, path, nmActiveIface, "State")
		if err != nil {
			return "", 0, err
		}
		return path, state, nil
	}
	return "", 0, nil
}

func isAccessPoint(conf map[string]map[string]dbus.Variant) bool {
	mode, ok := conf["802-11-wireless"]["mode"]
	return ok && mode.Value() == "ap"
}

func tetherStateFromActive(state uint32) capability.TetherState {
	switch state {
	case nmActiveActivating:
		return capability.TetherEnabling
	case nmActiveActivated:
		return capability.TetherEnabled
	case nmActiveDeactivating:
		return capability.TetherDisabling
	default:
		return capability.TetherDisabled
	}
}
