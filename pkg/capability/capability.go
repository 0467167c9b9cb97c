// Package capability tracks independently toggleable radios and drives each
// one from its actual state toward the state the user asked for.
package capability

import (
	"context"
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// Kind identifies one toggleable radio.
type Kind string

const (
	WiFi       Kind = "wifi"
	Bluetooth  Kind = "bluetooth"
	MobileData Kind = "mobile_data"
)

// Kinds lists every capability in render order.
var Kinds = []Kind{WiFi, Bluetooth, MobileData}

// Label returns the user-facing name of the capability.
func (k Kind) Label() string {
	switch k {
	case WiFi:
		return "Wi-Fi"
	case Bluetooth:
		return "Bluetooth"
	case MobileData:
		return "Mobile data"
	default:
		return string(k)
	}
}

// ParseKind accepts the canonical name or its dashed form.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case WiFi, Bluetooth, MobileData:
		return k, nil
	}
	return "", errors.InvalidInputf("unknown capability %q", s)
}

// DisplayState is what a capability renders as.
type DisplayState string

const (
	Off           DisplayState = "off"
	On            DisplayState = "on"
	Transitioning DisplayState = "transitioning"
)

// QueryFunc reads the live on/off state. It returns errors.ErrSubsystemAbsent
// when the hardware or its service is not present.
type QueryFunc func(ctx context.Context) (bool, error)

// CommandFunc asks the subsystem to move to the given state. It does not wait
// for the change to take effect.
type CommandFunc func(ctx context.Context, enabled bool) error

// PrepareFunc runs before the command for a given desired state.
type PrepareFunc func(ctx context.Context, desired bool) error

// Descriptor supplies the per-capability operations to the shared tracker.
type Descriptor struct {
	Kind    Kind
	Label   string
	Query   QueryFunc
	Command CommandFunc
	// Prepare is optional.
	Prepare PrepareFunc
}

// Validate checks the descriptor carries the required operations.
func (d Descriptor) Validate() error {
	if d.Kind == "" {
		return errors.InvalidInputf("descriptor kind must not be empty")
	}
	if d.Query == nil || d.Command == nil {
		return errors.InvalidInputf("descriptor %s requires query and command", d.Kind)
	}
	return nil
}

func (d Descriptor) label() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Kind.Label()
}

// Radio is the query/command surface a platform backend exposes for one radio.
type Radio interface {
	Enabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) error
}

// FromRadio builds a descriptor over a platform radio.
func FromRadio(kind Kind, r Radio, prepare PrepareFunc) Descriptor {
	return Descriptor{
		Kind:    kind,
		Label:   kind.Label(),
		Query:   r.Enabled,
		Command: r.SetEnabled,
		Prepare: prepare,
	}
}

// Notifier shows a short message to the user. Delivery is not acknowledged.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, message string) {
	f(ctx, message)
}

// FailureMessage is shown when a capability does not reach the desired state.
func FailureMessage(label string) string {
	return "Cannot change " + label + " state."
}
