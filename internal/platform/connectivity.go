package platform

import (
	"context"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/observer"
)

// NM_DEVICE_TYPE values for the watched transports.
const (
	nmDeviceTypeWiFi      uint32 = 2
	nmDeviceTypeBluetooth uint32 = 5
	nmDeviceTypeModem     uint32 = 8
)

// nmDeviceActivated is NM_DEVICE_STATE_ACTIVATED.
const nmDeviceActivated uint32 = 100

const nmDeviceStateChanged = nmDeviceIface + ".StateChanged"

// Connectivity turns NetworkManager device state changes into network
// available and lost edges.
type Connectivity struct {
	conn   SignalConn
	logger *slog.Logger

	mu    sync.Mutex
	types map[dbus.ObjectPath]uint32
}

// NewConnectivity binds to NetworkManager signals on conn, which may be nil.
func NewConnectivity(conn SignalConn, logger *slog.Logger) *Connectivity {
	return &Connectivity{conn: conn, logger: logger, types: make(map[dbus.ObjectPath]uint32)}
}

// Register implements observer.Connectivity.
func (c *Connectivity) Register(transports []observer.Transport, cb observer.NetworkCallbacks) (func(), error) {
	if c.conn == nil {
		return nil, errors.SubsystemAbsentf("connectivity: no system bus")
	}

	match := []dbus.MatchOption{
		dbus.WithMatchInterface(nmDeviceIface),
		dbus.WithMatchMember("StateChanged"),
	}
	if err := c.conn.AddMatchSignal(match...); err != nil {
		return nil, classify(err, "subscribe device state")
	}

	wanted := make(map[observer.Transport]bool, len(transports))
	for _, t := range transports {
		wanted[t] = true
	}

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-ch:
				if !ok {
					return
				}
				c.handle(sig, wanted, cb)
			}
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.conn.RemoveSignal(ch)
			if err := c.conn.RemoveMatchSignal(match...); err != nil {
				c.logger.Debug("Failed to remove signal match", "error", err)
			}
			close(done)
			wg.Wait()
		})
	}, nil
}

func (c *Connectivity) handle(sig *dbus.Signal, wanted map[observer.Transport]bool, cb observer.NetworkCallbacks) {
	if sig == nil || sig.Name != nmDeviceStateChanged {
		return
	}
	newState, oldState, ok := stateChangeBody(sig.Body)
	if !ok {
		return
	}
	available, lost := deviceEdge(newState, oldState)
	if !available && !lost {
		return
	}

	deviceType, err := c.deviceType(sig.Path)
	if err != nil {
		c.logger.Debug("Failed to read device type", "path", sig.Path, "error", err)
		return
	}
	transport, ok := transportForDeviceType(deviceType)
	if !ok || !wanted[transport] {
		return
	}

	if available && cb.OnAvailable != nil {
		cb.OnAvailable(transport)
	}
	if lost && cb.OnLost != nil {
		cb.OnLost(transport)
	}
}

func (c *Connectivity) deviceType(path dbus.ObjectPath) (uint32, error) {
	c.mu.Lock()
	t, ok := c.types[path]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	t, err := getUint32(context.Background(), c.conn, nmBusName, path, nmDeviceIface, "DeviceType")
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.types[path] = t
	c.mu.Unlock()
	return t, nil
}

// stateChangeBody decodes (new_state, old_state, reason).
func stateChangeBody(body []any) (uint32, uint32, bool) {
	if len(body) < 2 {
		return 0, 0, false
	}
	newState, ok1 := body[0].(uint32)
	oldState, ok2 := body[1].(uint32)
	return newState, oldState, ok1 && ok2
}

// deviceEdge reports whether a transition enters or leaves ACTIVATED.
func deviceEdge(newState, oldState uint32) (available, lost bool) {
	if newState == oldState {
		return false, false
	}
	return newState == nmDeviceActivated, oldState == nmDeviceActivated
}

func transportForDeviceType(t uint32) (observer.Transport, bool) {
	switch t {
	case nmDeviceTypeWiFi:
		return observer.TransportWiFi, true
	case nmDeviceTypeBluetooth:
		return observer.TransportBluetooth, true
	case nmDeviceTypeModem:
		return observer.TransportCellular, true
	}
	return "", false
}
