package brightness

// Icon names the brightness glyph.
type Icon string

const (
	IconAuto Icon = "auto"
	IconOff  Icon = "off"
	IconHalf Icon = "half"
	IconFull Icon = "full"
)

// Indicator is the lamp under a control.
type Indicator string

const (
	IndicatorOn  Indicator = "on"
	IndicatorOff Indicator = "off"
)

// View is the rendered brightness control.
type View struct {
	Mode        Mode      `json:"mode"`
	Level       int       `json:"level"`
	Icon        Icon      `json:"icon"`
	Indicator   Indicator `json:"indicator"`
	Description string    `json:"description"`
}

// Display derives the brightness control from the stored state.
func (c *Controller) Display() View {
	return DisplayFor(c.Current(), c.limits)
}

// DisplayFor maps a state to its view. Thresholds only affect the icon.
func DisplayFor(s State, l Limits) View {
	v := View{Mode: s.Mode, Level: s.Level}
	if s.Mode == Automatic {
		v.Icon = IconAuto
		v.Indicator = IndicatorOn
	} else {
		switch {
		case s.Level > l.FullThreshold():
			v.Icon = IconFull
		case s.Level > l.HalfThreshold():
			v.Icon = IconHalf
		default:
			v.Icon = IconOff
		}
		v.Indicator = IndicatorOff
		if s.Level > l.HalfThreshold() {
			v.Indicator = IndicatorOn
		}
	}
	v.Description = "Brightness: " + string(v.Icon)
	return v
}
