package platform

import (
	"context"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notifyBusName = "org.freedesktop.Notifications"
	notifyPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyIface   = "org.freedesktop.Notifications"

	// notifyTimeout is the toast lifetime in milliseconds.
	notifyTimeout int32 = 3000
)

// Notifier shows desktop notifications. Delivery is fire-and-forget: failures
// are logged and the caller never learns about them.
type Notifier struct {
	conn    BusConn
	appName string
	enabled bool
	logger  *slog.Logger
}

// NewNotifier binds to the notification daemon on the session bus.
func NewNotifier(conn BusConn, appName string, enabled bool, logger *slog.Logger) *Notifier {
	return &Notifier{conn: conn, appName: appName, enabled: enabled, logger: logger}
}

// Notify implements capability.Notifier.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if !n.enabled {
		n.logger.Debug("Notification suppressed", "message", message)
		return
	}
	if n.conn == nil {
		n.logger.Info("Notification (no session bus)", "message", message)
		return
	}
	call := n.conn.Object(notifyBusName, notifyPath).CallWithContext(ctx, notifyIface+".Notify", dbus.FlagNoReplyExpected,
		n.appName, uint32(0), "network-wireless", n.appName, message, []string{}, map[string]dbus.Variant{}, notifyTimeout)
	if err := classify(call.Err, "notify"); err != nil {
		n.logger.Warn("Failed to send notification", "message", message, "error", err)
	}
}
