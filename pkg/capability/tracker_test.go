package capability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

type fakeRadio struct {
	mu       sync.Mutex
	on       bool
	follow   bool
	absent   bool
	commands []bool
}

func (f *fakeRadio) Enabled(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.absent {
		return false, errors.SubsystemAbsentf("radio missing")
	}
	return f.on, nil
}

func (f *fakeRadio) SetEnabled(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.absent {
		return errors.SubsystemAbsentf("radio missing")
	}
	f.commands = append(f.commands, on)
	if f.follow {
		f.on = on
	}
	return nil
}

func (f *fakeRadio) set(on bool) {
	f.mu.Lock()
	f.on = on
	f.mu.Unlock()
}

func (f *fakeRadio) Commands() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.commands...)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestTracker(t *testing.T, kind Kind, radio *fakeRadio, r *Reconciler, n Notifier, hooks Hooks) *Tracker {
	t.Helper()
	tr, err := NewTracker(FromRadio(kind, radio, nil), r, n, hooks, testLogger())
	require.NoError(t, err)
	return tr
}

func TestTrackerConvergesWithoutNotification(t *testing.T) {
	radio := &fakeRadio{follow: true}
	notifier := &recordingNotifier{}
	var results []Result
	var mu sync.Mutex
	hooks := Hooks{OnComplete: func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}}
	tr := newTestTracker(t, Bluetooth, radio, newTestReconciler(&sleepRecorder{}), notifier, hooks)

	require.NoError(t, tr.RequestStateChange(context.Background()))
	tr.Wait()

	assert.True(t, tr.ActualState(context.Background()))
	intended, set := tr.IntendedState()
	assert.True(t, set)
	assert.True(t, intended)
	assert.Empty(t, notifier.Messages())
	require.Len(t, results, 1)
	assert.Equal(t, Succeeded, results[0].Outcome)
	assert.Equal(t, 1, results[0].Polls)
	assert.NotEmpty(t, results[0].AttemptID)
}

func TestTrackerExhaustionNotifiesOnce(t *testing.T) {
	radio := &fakeRadio{}
	notifier := &recordingNotifier{}
	sleeps := &sleepRecorder{}
	tr := newTestTracker(t, MobileData, radio, newTestReconciler(sleeps), notifier, Hooks{})

	require.NoError(t, tr.RequestStateChange(context.Background()))
	tr.Wait()

	assert.Equal(t, []string{"Cannot change Mobile data state."}, notifier.Messages())
	assert.Len(t, sleeps.Waits(), 14)
	assert.Equal(t, []bool{true}, radio.Commands())
	assert.Equal(t, Off, tr.DisplayState(context.Background()))
}

func TestTrackerSingleSlot(t *testing.T) {
	radio := &fakeRadio{}
	gate := make(chan struct{})
	r := NewReconciler(testLogger())
	r.Sleep = func(time.Duration) { <-gate }
	done := make(chan Result, 1)
	tr := newTestTracker(t, WiFi, radio, r, nil, Hooks{OnComplete: func(res Result) { done <- res }})
	ctx := context.Background()

	require.NoError(t, tr.RequestStateChange(ctx))
	assert.True(t, tr.InFlight())
	assert.Equal(t, Transitioning, tr.DisplayState(ctx))
	require.Eventually(t, func() bool { return len(radio.Commands()) == 1 }, time.Second, time.Millisecond)

	err := tr.RequestStateChange(ctx)
	assert.True(t, errors.IsTransitionInProgress(err))
	assert.Len(t, radio.Commands(), 1, "rejected request launches nothing")

	radio.set(true)
	close(gate)
	tr.Wait()

	res := <-done
	assert.Equal(t, Succeeded, res.Outcome)
	assert.False(t, tr.InFlight())
	assert.Equal(t, On, tr.DisplayState(ctx))

	// A fresh request starts from the current actual state.
	radio.follow = true
	require.NoError(t, tr.RequestStateChange(ctx))
	tr.Wait()
	intended, _ := tr.IntendedState()
	assert.False(t, intended)
	assert.Equal(t, []bool{true, false}, radio.Commands())
}

func TestTrackerOutlivesCallerContext(t *testing.T) {
	radio := &fakeRadio{follow: true}
	tr := newTestTracker(t, WiFi, radio, newTestReconciler(&sleepRecorder{}), nil, Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	var seen error
	tr.desc.Query = func(c context.Context) (bool, error) {
		seen = c.Err()
		return radio.Enabled(c)
	}
	require.NoError(t, tr.RequestStateChange(ctx))
	cancel()
	tr.Wait()

	assert.NoError(t, seen)
	assert.True(t, tr.ActualState(context.Background()))
}

func TestTrackerAbsentSubsystem(t *testing.T) {
	radio := &fakeRadio{absent: true}
	var started bool
	tr := newTestTracker(t, Bluetooth, radio, newTestReconciler(&sleepRecorder{}), nil, Hooks{
		OnStart: func(Kind, string, bool) { started = true },
	})
	ctx := context.Background()

	assert.False(t, tr.ActualState(ctx))
	assert.NoError(t, tr.RequestStateChange(ctx))
	tr.Wait()

	assert.False(t, started)
	assert.False(t, tr.InFlight())
	assert.Empty(t, radio.Commands())
	_, set := tr.IntendedState()
	assert.False(t, set)
	assert.Equal(t, Off, tr.DisplayState(ctx))
}

func TestTrackerIntendedSetBeforeConfirmation(t *testing.T) {
	radio := &fakeRadio{}
	gate := make(chan struct{})
	r := NewReconciler(testLogger())
	r.MaxAttempts = 2
	r.Sleep = func(time.Duration) { <-gate }
	tr := newTestTracker(t, WiFi, radio, r, nil, Hooks{})

	require.NoError(t, tr.RequestStateChange(context.Background()))
	intended, set := tr.IntendedState()
	assert.True(t, set)
	assert.True(t, intended)
	assert.False(t, tr.ActualState(context.Background()))

	close(gate)
	tr.Wait()
}

func TestNewTrackerValidatesDescriptor(t *testing.T) {
	_, err := NewTracker(Descriptor{Kind: WiFi}, nil, nil, Hooks{}, nil)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewTracker(Descriptor{}, nil, nil, Hooks{}, nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"wifi":        WiFi,
		"Bluetooth":   Bluetooth,
		"mobile-data": MobileData,
		"mobile_data": MobileData,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("nfc")
	assert.True(t, errors.IsInvalidInput(err))
}

func TestKindLabels(t *testing.T) {
	assert.Equal(t, "Wi-Fi", WiFi.Label())
	assert.Equal(t, "Bluetooth", Bluetooth.Label())
	assert.Equal(t, "Mobile data", MobileData.Label())
	assert.Equal(t, "Cannot change Wi-Fi state.", FailureMessage(WiFi.Label()))
}
