package platform

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

const (
	logindBusName      = "org.freedesktop.login1"
	logindPath         = dbus.ObjectPath("/org/freedesktop/login1")
	logindManagerIface = "org.freedesktop.login1.Manager"
	logindSessionPath  = dbus.ObjectPath("/org/freedesktop/login1/session/auto")
	logindSessionIface = "org.freedesktop.login1.Session"
)

// Logind suspends the machine and sets the backlight of the caller's session.
type Logind struct {
	conn   BusConn
	device string
}

// NewLogind binds to logind. device names the backlight used for previews.
func NewLogind(conn BusConn, device string) *Logind {
	return &Logind{conn: conn, device: device}
}

// Suspend asks logind to suspend without an interactive authorization prompt.
func (l *Logind) Suspend(ctx context.Context) error {
	if l.conn == nil {
		return errors.SubsystemAbsentf("logind: no bus connection")
	}
	call := l.conn.Object(logindBusName, logindPath).CallWithContext(ctx, logindManagerIface+".Suspend", 0, false)
	return classify(call.Err, "suspend")
}

// Preview applies level to the backlight immediately.
func (l *Logind) Preview(ctx context.Context, level int) error {
	if l.conn == nil {
		return errors.SubsystemAbsentf("logind: no bus connection")
	}
	if l.device == "" {
		return errors.SubsystemAbsentf("no backlight device")
	}
	if level < 0 {
		level = 0
	}
	call := l.conn.Object(logindBusName, logindSessionPath).CallWithContext(ctx,
		logindSessionIface+".SetBrightness", 0, "backlight", l.device, uint32(level))
	return classify(call.Err, "set brightness")
}
