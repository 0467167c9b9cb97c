package brightness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

func TestThresholds(t *testing.T) {
	assert.Equal(t, 76, testLimits.HalfThreshold())
	assert.Equal(t, 204, testLimits.FullThreshold())
}

func TestDisplayFor(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		icon      Icon
		indicator Indicator
	}{
		{"auto", State{Mode: Automatic, Level: 0}, IconAuto, IndicatorOn},
		{"zero", State{Mode: Manual, Level: 0}, IconOff, IndicatorOff},
		{"at half threshold", State{Mode: Manual, Level: 76}, IconOff, IndicatorOff},
		{"above half", State{Mode: Manual, Level: 77}, IconHalf, IndicatorOn},
		{"default", State{Mode: Manual, Level: 102}, IconHalf, IndicatorOn},
		{"at full threshold", State{Mode: Manual, Level: 204}, IconHalf, IndicatorOn},
		{"above full", State{Mode: Manual, Level: 205}, IconFull, IndicatorOn},
		{"max", State{Mode: Manual, Level: 255}, IconFull, IndicatorOn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DisplayFor(tt.state, testLimits)
			assert.Equal(t, tt.icon, v.Icon)
			assert.Equal(t, tt.indicator, v.Indicator)
			assert.Equal(t, "Brightness: "+string(tt.icon), v.Description)
		})
	}
}

func TestControllerDisplayReadsStore(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{settings.KeyBrightness: 250})
	c := newTestController(t, store, true)

	v := c.Display()
	assert.Equal(t, IconFull, v.Icon)
	assert.Equal(t, "Brightness: full", v.Description)

	store.PutInt(settings.KeyBrightnessMode, settings.ModeAutomatic)
	assert.Equal(t, IconAuto, c.Display().Icon)
}
