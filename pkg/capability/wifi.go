package capability

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// TetherState is the state of tethering over the Wi-Fi radio.
type TetherState int

const (
	TetherDisabled TetherState = iota
	TetherEnabling
	TetherEnabled
	TetherDisabling
)

func (s TetherState) String() string {
	switch s {
	case TetherEnabling:
		return "enabling"
	case TetherEnabled:
		return "enabled"
	case TetherDisabling:
		return "disabling"
	default:
		return "disabled"
	}
}

// Active reports whether tethering holds, or is about to hold, the radio.
func (s TetherState) Active() bool {
	return s == TetherEnabling || s == TetherEnabled
}

// Tethering exposes the Wi-Fi hotspot of the platform.
type Tethering interface {
	TetherState(ctx context.Context) (TetherState, error)
	StopTethering(ctx context.Context) error
}

// StopTetheringBeforeEnable stops an enabling or enabled hotspot before the
// radio is switched on. Disabling never touches tethering.
func StopTetheringBeforeEnable(t Tethering, logger *slog.Logger) PrepareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, desired bool) error {
		if !desired {
			return nil
		}
		state, err := t.TetherState(ctx)
		if err != nil {
			if errors.IsSubsystemAbsent(err) {
				return nil
			}
			return errors.WrapErrorf(err, "reading tether state")
		}
		if !state.Active() {
			return nil
		}
		logger.Info("Stopping Wi-Fi tethering before enabling Wi-Fi", "tether_state", state)
		if err := t.StopTethering(ctx); err != nil {
			return errors.WrapErrorf(err, "stopping tethering")
		}
		return nil
	}
}
