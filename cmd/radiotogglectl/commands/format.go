package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/surface"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/pterm/pterm"
)

// SurfaceTableData returns the table rows for a snapshot, header first.
func SurfaceTableData(snap surface.Snapshot) pterm.TableData {
	data := pterm.TableData{{"Control", "State", "Indicator", "Requested"}}
	for _, c := range snap.Capabilities {
		data = append(data, []string{c.Label, string(c.State), c.Indicator, formatIntended(c.Intended)})
	}
	b := snap.Brightness
	state := string(b.Mode)
	if b.Mode != brightness.Automatic {
		state = fmt.Sprintf("%s (%d)", b.Mode, b.Level)
	}
	data = append(data, []string{"Brightness", state, string(b.Indicator), "-"})
	return data
}

func formatIntended(v *bool) string {
	switch {
	case v == nil:
		return "-"
	case *v:
		return "on"
	default:
		return "off"
	}
}

// CapabilityParseable returns the key=value line for one radio.
func CapabilityParseable(c surface.CapabilityView) string {
	parts := []string{
		"kind=" + string(c.Kind),
		"label=" + strconv.Quote(c.Label),
		"state=" + string(c.State),
		"indicator=" + c.Indicator,
	}
	if c.Intended != nil {
		parts = append(parts, "intended="+strconv.FormatBool(*c.Intended))
	}
	return strings.Join(parts, " ")
}

// BrightnessParseable returns the key=value line for the brightness control.
func BrightnessParseable(snap surface.Snapshot) string {
	b := snap.Brightness
	return fmt.Sprintf("kind=brightness mode=%s level=%d icon=%s indicator=%s", b.Mode, b.Level, b.Icon, b.Indicator)
}
