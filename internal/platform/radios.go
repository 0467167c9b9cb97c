package platform

import (
	"log/slog"

	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

// Descriptors binds each capability to its backend. Wi-Fi stops an active
// hotspot before switching the radio on.
func Descriptors(nm *NetworkManager, bt *BluetoothAdapter, logger *slog.Logger) []capability.Descriptor {
	return []capability.Descriptor{
		capability.FromRadio(capability.WiFi, nm.WiFi(), capability.StopTetheringBeforeEnable(nm, logger)),
		capability.FromRadio(capability.Bluetooth, bt, nil),
		capability.FromRadio(capability.MobileData, nm.MobileData(), nil),
	}
}
