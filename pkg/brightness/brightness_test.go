package brightness

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/internal/errors"
	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

var testLimits = Limits{Min: 10, Default: 102, Max: 255}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePreviewer struct {
	levels []int
	err    error
}

func (f *fakePreviewer) Preview(_ context.Context, level int) error {
	f.levels = append(f.levels, level)
	return f.err
}

// failingStore rejects every write.
type failingStore struct {
	*settings.MemoryStore
}

func (failingStore) PutInt(string, int) error {
	return errors.Internalf("read-only store")
}

func newTestController(t *testing.T, store settings.Store, auto bool, opts ...Option) *Controller {
	t.Helper()
	c, err := NewController(store, testLimits, auto, testLogger(), opts...)
	require.NoError(t, err)
	return c
}

func TestRotationClosureWithAuto(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{
		settings.KeyBrightnessMode: settings.ModeAutomatic,
		settings.KeyBrightness:     77,
	})
	c := newTestController(t, store, true)
	ctx := context.Background()

	want := []State{
		{Mode: Manual, Level: 10},
		{Mode: Manual, Level: 102},
		{Mode: Manual, Level: 255},
		{Mode: Automatic, Level: 10},
	}
	for i, w := range want {
		assert.Equal(t, w, c.Toggle(ctx), "toggle %d", i+1)
		assert.Equal(t, w, c.Current(), "stored state after toggle %d", i+1)
	}

	// The cycle repeats.
	assert.Equal(t, want[0], c.Toggle(ctx))
}

func TestDegenerateRotationWithoutAuto(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{settings.KeyBrightness: 10})
	c := newTestController(t, store, false)
	ctx := context.Background()

	for i, level := range []int{102, 255, 10, 102} {
		s := c.Toggle(ctx)
		assert.Equal(t, Manual, s.Mode, "toggle %d", i+1)
		assert.Equal(t, level, s.Level, "toggle %d", i+1)
	}

	_, err := store.GetInt(settings.KeyBrightnessMode)
	assert.True(t, errors.IsNotFound(err), "mode is never written without auto support")
}

func TestStoredAutoModeIgnoredWithoutAutoSupport(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{
		settings.KeyBrightnessMode: settings.ModeAutomatic,
		settings.KeyBrightness:     255,
	})
	c := newTestController(t, store, false)

	assert.Equal(t, State{Mode: Manual, Level: 10}, c.Toggle(context.Background()))
}

func TestMissingSettingsFallBack(t *testing.T) {
	c := newTestController(t, settings.NewMemoryStore(nil), true)

	assert.Equal(t, State{Mode: Manual, Level: 0}, c.Current())
	assert.Equal(t, State{Mode: Manual, Level: 102}, c.Toggle(context.Background()))
}

func TestWriteFailuresAreSwallowed(t *testing.T) {
	store := failingStore{settings.NewMemoryStore(map[string]int{settings.KeyBrightness: 102})}
	preview := &fakePreviewer{}
	c := newTestController(t, store, true, WithPreviewer(preview))

	s := c.Toggle(context.Background())
	assert.Equal(t, State{Mode: Manual, Level: 255}, s)
	assert.Equal(t, []int{255}, preview.levels)
}

func TestPreviewOnlyInManualMode(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{settings.KeyBrightness: 255})
	preview := &fakePreviewer{err: errors.SubsystemAbsentf("no logind")}
	c := newTestController(t, store, true, WithPreviewer(preview))
	ctx := context.Background()

	assert.Equal(t, Automatic, c.Toggle(ctx).Mode)
	assert.Empty(t, preview.levels)

	assert.Equal(t, Manual, c.Toggle(ctx).Mode)
	assert.Equal(t, []int{10}, preview.levels)
}

func TestTogglePublishesEvent(t *testing.T) {
	bus := events.NewBus()
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	c := newTestController(t, settings.NewMemoryStore(nil), false, WithEventBus(bus))
	c.Toggle(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, events.BrightnessChanged, got[0].Type)
}

func TestNewControllerValidation(t *testing.T) {
	_, err := NewController(nil, testLimits, true, nil)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewController(settings.NewMemoryStore(nil), Limits{Min: 50, Default: 20, Max: 100}, true, nil)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewController(settings.NewMemoryStore(nil), Limits{}, true, nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestToggleNeverExposesManualWithStaleLevel(t *testing.T) {
	store := settings.NewMemoryStore(map[string]int{
		settings.KeyBrightnessMode: settings.ModeAutomatic,
		settings.KeyBrightness:     77,
	})
	c := newTestController(t, store, true)

	var seen []State
	for _, key := range []string{settings.KeyBrightness, settings.KeyBrightnessMode} {
		unwatch, err := store.Watch(key, func(string) { seen = append(seen, c.Current()) })
		require.NoError(t, err)
		defer unwatch()
	}

	for i := range 8 {
		seen = nil
		next := c.Toggle(context.Background())
		require.NotEmpty(t, seen, "toggle %d", i+1)
		for _, s := range seen {
			if s.Mode == Manual {
				assert.Equal(t, next.Level, s.Level, "toggle %d exposed %+v", i+1, s)
			}
		}
		assert.Equal(t, next, seen[len(seen)-1], "toggle %d", i+1)
	}
}
