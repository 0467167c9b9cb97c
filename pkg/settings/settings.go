// Package settings defines the integer key-value store that persists
// brightness state, and the implementations the daemon ships with.
package settings

import (
	"sort"
	"sync"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// Keys shared with every other writer of the store.
const (
	KeyBrightness        = "screen_brightness"
	KeyBrightnessMode    = "screen_brightness_mode"
	KeyAutoBrightnessAdj = "screen_auto_brightness_adj"
)

// Values of KeyBrightnessMode.
const (
	ModeManual    = 0
	ModeAutomatic = 1
)

// BrightnessKeys lists the keys whose changes affect the rendered surface.
var BrightnessKeys = []string{KeyBrightness, KeyBrightnessMode, KeyAutoBrightnessAdj}

// WatchFunc is invoked with the key that changed.
type WatchFunc func(key string)

// Store is an integer key-value store that tolerates concurrent external writers.
type Store interface {
	// GetInt returns errors.ErrNotFound when the key has never been written.
	GetInt(key string) (int, error)
	PutInt(key string, value int) error
	// Watch registers fn for writes to key. The returned func removes it.
	Watch(key string, fn WatchFunc) (func(), error)
}

// watchers fans key changes out to registered callbacks.
type watchers struct {
	mu     sync.Mutex
	nextID int
	byKey  map[string]map[int]WatchFunc
}

func (w *watchers) add(key string, fn WatchFunc) (func(), error) {
	if key == "" {
		return nil, errors.InvalidInputf("watch key must not be empty")
	}
	if fn == nil {
		return nil, errors.InvalidInputf("watch callback must not be nil")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.byKey == nil {
		w.byKey = make(map[string]map[int]WatchFunc)
	}
	if w.byKey[key] == nil {
		w.byKey[key] = make(map[int]WatchFunc)
	}
	id := w.nextID
	w.nextID++
	w.byKey[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.byKey[key], id)
			if len(w.byKey[key]) == 0 {
				delete(w.byKey, key)
			}
		})
	}, nil
}

// notify calls every callback for key outside the lock, in registration order.
func (w *watchers) notify(key string) {
	w.mu.Lock()
	ids := make([]int, 0, len(w.byKey[key]))
	for id := range w.byKey[key] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]WatchFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.byKey[key][id])
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

func (w *watchers) count(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byKey[key])
}

func validateKey(key string) error {
	if key == "" {
		return errors.InvalidInputf("setting key must not be empty")
	}
	return nil
}
