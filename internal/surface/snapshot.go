package surface

import (
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

// Indicator lamp states. Mid marks a capability that is switching.
const (
	IndicatorOn  = "on"
	IndicatorMid = "mid"
	IndicatorOff = "off"
)

// Indicator positions under the buttons.
const (
	PositionLeft   = "left"
	PositionCenter = "center"
)

// CapabilityView is one rendered radio button.
type CapabilityView struct {
	Kind      capability.Kind         `json:"kind"`
	Label     string                  `json:"label"`
	State     capability.DisplayState `json:"state"`
	Icon      string                  `json:"icon"`
	Indicator string                  `json:"indicator"`
	Position  string                  `json:"position"`
	// Intended is the last requested state, absent until the first toggle.
	Intended *bool `json:"intended,omitempty"`
}

// Snapshot is the full rendered surface. It is recomputed on every render
// and carries no timestamps, so identical state renders identically.
type Snapshot struct {
	Capabilities []CapabilityView `json:"capabilities"`
	Brightness   brightness.View  `json:"brightness"`
}

// Capability returns the view for kind.
func (s Snapshot) Capability(kind capability.Kind) (CapabilityView, bool) {
	for _, c := range s.Capabilities {
		if c.Kind == kind {
			return c, true
		}
	}
	return CapabilityView{}, false
}

// Surface is a host view the snapshot is pushed into.
type Surface interface {
	Present(Snapshot)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Snapshot)

// Present implements Surface.
func (f SurfaceFunc) Present(s Snapshot) {
	f(s)
}

func renderCapability(kind capability.Kind, label string, state capability.DisplayState, intended bool, intendedSet bool) CapabilityView {
	v := CapabilityView{
		Kind:     kind,
		Label:    label,
		State:    state,
		Icon:     string(kind) + "_" + string(state),
		Position: PositionCenter,
	}
	switch state {
	case capability.On:
		v.Indicator = IndicatorOn
	case capability.Transitioning:
		v.Indicator = IndicatorMid
	default:
		v.Indicator = IndicatorOff
	}
	if kind == capability.WiFi {
		v.Position = PositionLeft
	}
	if intendedSet {
		v.Intended = &intended
	}
	return v
}
