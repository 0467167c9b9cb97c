// Package platform binds the control surface to the Linux desktop: NetworkManager,
// BlueZ, logind and the notification daemon over D-Bus, and the sysfs backlight.
package platform

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

const propsIface = "org.freedesktop.DBus.Properties"

// BusConn is the part of *dbus.Conn used for method calls.
type BusConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// SignalConn is the part of *dbus.Conn used for signal subscriptions.
type SignalConn interface {
	BusConn
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
}

// D-Bus error names that mean the service or object is not there.
var absentErrorNames = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown":   true,
	"org.freedesktop.DBus.Error.NameHasNoOwner":   true,
	"org.freedesktop.DBus.Error.UnknownObject":    true,
	"org.freedesktop.DBus.Error.UnknownInterface": true,
	"org.freedesktop.DBus.Error.UnknownMethod":    true,
	"org.freedesktop.DBus.Error.UnknownProperty":  true,
}

// classify maps D-Bus failures onto the error taxonomy of the daemon.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	var name string
	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	switch {
	case stderrors.As(err, &dbusErr):
		name = dbusErr.Name
	case stderrors.As(err, &dbusErrPtr):
		name = dbusErrPtr.Name
	}
	if absentErrorNames[name] {
		return fmt.Errorf("%s: %w: %w", what, errors.ErrSubsystemAbsent, err)
	}
	return errors.WrapErrorf(err, "%s", what)
}

func getProperty(ctx context.Context, conn BusConn, dest string, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	if conn == nil {
		return v, errors.SubsystemAbsentf("%s: no bus connection", dest)
	}
	err := conn.Object(dest, path).CallWithContext(ctx, propsIface+".Get", 0, iface, prop).Store(&v)
	return v, classify(err, fmt.Sprintf("get %s.%s", iface, prop))
}

func setProperty(ctx context.Context, conn BusConn, dest string, path dbus.ObjectPath, iface, prop string, val any) error {
	if conn == nil {
		return errors.SubsystemAbsentf("%s: no bus connection", dest)
	}
	err := conn.Object(dest, path).CallWithContext(ctx, propsIface+".Set", 0, iface, prop, dbus.MakeVariant(val)).Err
	return classify(err, fmt.Sprintf("set %s.%s", iface, prop))
}

func getBool(ctx context.Context, conn BusConn, dest string, path dbus.ObjectPath, iface, prop string) (bool, error) {
	v, err := getProperty(ctx, conn, dest, path, iface, prop)
	if err != nil {
		return false, err
	}
	val, ok := v.Value().(bool)
	if !ok {
		return false, errors.Internalf("property %s is %s, not bool", prop, v.Signature())
	}
	return val, nil
}

func getUint32(ctx context.Context, conn BusConn, dest string, path dbus.ObjectPath, iface, prop string) (uint32, error) {
	v, err := getProperty(ctx, conn, dest, path, iface, prop)
	if err != nil {
		return 0, err
	}
	val, ok := v.Value().(uint32)
	if !ok {
		return 0, errors.Internalf("property %s is %s, not uint32", prop, v.Signature())
	}
	return val, nil
}

// Buses holds the system and session bus connections. Either may be nil
// when the bus is not reachable, in which case the backends built on it
// report errors.ErrSubsystemAbsent.
type Buses struct {
	System  *dbus.Conn
	Session *dbus.Conn
}

// ConnectBuses connects to both buses, logging rather than failing when one
// is missing so the daemon stays usable without D-Bus.
func ConnectBuses(logger *slog.Logger) *Buses {
	b := &Buses{}
	if conn, err := dbus.ConnectSystemBus(); err != nil {
		logger.Warn("System bus unavailable, radios will report absent", "error", err)
	} else {
		b.System = conn
	}
	if conn, err := dbus.ConnectSessionBus(); err != nil {
		logger.Debug("Session bus unavailable, notifications disabled", "error", err)
	} else {
		b.Session = conn
	}
	return b
}

// SystemConn returns the system bus as a SignalConn, or nil.
func (b *Buses) SystemConn() SignalConn {
	if b == nil || b.System == nil {
		return nil
	}
	return b.System
}

// SessionConn returns the session bus as a BusConn, or nil.
func (b *Buses) SessionConn() BusConn {
	if b == nil || b.Session == nil {
		return nil
	}
	return b.Session
}

// Close closes both connections.
func (b *Buses) Close() {
	if b == nil {
		return
	}
	if b.System != nil {
		_ = b.System.Close()
	}
	if b.Session != nil {
		_ = b.Session.Close()
	}
}
