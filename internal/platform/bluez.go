package platform

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBusName      = "org.bluez"
	bluezAdapterIface = "org.bluez.Adapter1"
)

// BluetoothAdapter is a BlueZ adapter, powered on and off through Adapter1.Powered.
type BluetoothAdapter struct {
	conn BusConn
	path dbus.ObjectPath
}

// NewBluetoothAdapter binds to the adapter at path, e.g. /org/bluez/hci0.
func NewBluetoothAdapter(conn BusConn, path string) *BluetoothAdapter {
	return &BluetoothAdapter{conn: conn, path: dbus.ObjectPath(path)}
}

// Enabled reports whether the adapter is powered.
func (b *BluetoothAdapter) Enabled(ctx context.Context) (bool, error) {
	return getBool(ctx, b.conn, bluezBusName, b.path, bluezAdapterIface, "Powered")
}

// SetEnabled powers the adapter on or off.
func (b *BluetoothAdapter) SetEnabled(ctx context.Context, enabled bool) error {
	return setProperty(ctx, b.conn, bluezBusName, b.path, bluezAdapterIface, "Powered", enabled)
}
