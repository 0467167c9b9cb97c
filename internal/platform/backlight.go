package platform

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
)

// DefaultBacklightRoot is where the kernel exposes backlight devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// Backlight reads device brightness bounds from sysfs.
type Backlight struct {
	root   string
	device string
}

// NewBacklight binds to device under root. An empty device picks the first
// one present.
func NewBacklight(root, device string) *Backlight {
	if root == "" {
		root = DefaultBacklightRoot
	}
	b := &Backlight{root: root, device: device}
	if b.device == "" {
		b.device = b.detect()
	}
	return b
}

// Device returns the backlight name, or "" when none exists.
func (b *Backlight) Device() string {
	return b.device
}

func (b *Backlight) detect() string {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// MaxBrightness returns the device maximum.
func (b *Backlight) MaxBrightness() (int, error) {
	if b.device == "" {
		return 0, errors.SubsystemAbsentf("no backlight device under %s", b.root)
	}
	data, err := os.ReadFile(filepath.Join(b.root, b.device, "max_brightness"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.SubsystemAbsentf("backlight %s", b.device)
		}
		return 0, errors.WrapErrorf(err, "reading max_brightness")
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || v <= 0 {
		return 0, errors.Internalf("invalid max_brightness %q", strings.TrimSpace(string(data)))
	}
	return v, nil
}

// Limits scales the configured levels, expressed against fallback.Max, onto
// the device range. Without a device the fallback is returned unchanged.
func (b *Backlight) Limits(fallback brightness.Limits) brightness.Limits {
	deviceMax, err := b.MaxBrightness()
	if err != nil || fallback.Max <= 0 || deviceMax == fallback.Max {
		return fallback
	}
	scale := func(v int) int {
		return v * deviceMax / fallback.Max
	}
	return brightness.Limits{
		Min:     scale(fallback.Min),
		Default: scale(fallback.Default),
		Max:     deviceMax,
	}
}
