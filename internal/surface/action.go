package surface

import (
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

// Action is a user-triggered control.
type Action string

const (
	ActionWiFi       Action = "wifi"
	ActionBluetooth  Action = "bluetooth"
	ActionMobileData Action = "mobile_data"
	ActionSleep      Action = "sleep"
	ActionBrightness Action = "brightness"
)

// Actions lists every action in button order.
var Actions = []Action{ActionWiFi, ActionBluetooth, ActionMobileData, ActionSleep, ActionBrightness}

// numeric button identifiers kept for older hosts.
var actionAliases = map[string]Action{
	"0": ActionWiFi,
	"1": ActionMobileData,
	"2": ActionBluetooth,
	"3": ActionSleep,
	"4": ActionBrightness,
}

// ParseAction resolves an action name, its dashed form, or a numeric alias.
func ParseAction(s string) (Action, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if a, ok := actionAliases[key]; ok {
		return a, nil
	}
	for _, a := range Actions {
		if string(a) == key {
			return a, nil
		}
	}
	return "", errors.InvalidInputf("unknown action %q", s)
}

// Capability returns the tracker kind the action toggles, if any.
func (a Action) Capability() (capability.Kind, bool) {
	switch a {
	case ActionWiFi:
		return capability.WiFi, true
	case ActionBluetooth:
		return capability.Bluetooth, true
	case ActionMobileData:
		return capability.MobileData, true
	}
	return "", false
}
