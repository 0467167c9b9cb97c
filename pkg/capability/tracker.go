package capability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// Hooks observe a tracker's attempts. Every field is optional.
type Hooks struct {
	// OnStart runs on the caller's goroutine once an attempt has been accepted.
	OnStart func(kind Kind, attemptID string, desired bool)
	// OnComplete runs last on the attempt's goroutine, after the in-flight slot
	// is released and any failure notification has been sent.
	OnComplete func(Result)
}

// Tracker owns one capability: its intended state and at most one in-flight
// reconciliation attempt.
type Tracker struct {
	desc       Descriptor
	reconciler *Reconciler
	notifier   Notifier
	hooks      Hooks
	logger     *slog.Logger

	mu          sync.Mutex
	intended    bool
	intendedSet bool
	inFlight    string

	wg sync.WaitGroup
}

// NewTracker creates a tracker. A nil reconciler uses the defaults, a nil
// notifier drops failure messages.
func NewTracker(desc Descriptor, reconciler *Reconciler, notifier Notifier, hooks Hooks, logger *slog.Logger) (*Tracker, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if reconciler == nil {
		reconciler = NewReconciler(logger)
	}
	desc.Label = desc.label()
	return &Tracker{
		desc:       desc,
		reconciler: reconciler,
		notifier:   notifier,
		hooks:      hooks,
		logger:     logger.With("capability", desc.Kind),
	}, nil
}

// Kind returns the tracked capability.
func (t *Tracker) Kind() Kind {
	return t.desc.Kind
}

// Label returns the user-facing name.
func (t *Tracker) Label() string {
	return t.desc.Label
}

// ActualState queries the live subsystem. It never fails: an absent or
// erroring subsystem reads as off.
func (t *Tracker) ActualState(ctx context.Context) bool {
	on, err := t.desc.Query(ctx)
	if err != nil {
		if errors.IsSubsystemAbsent(err) {
			t.logger.Debug("Subsystem absent", "error", err)
		} else {
			t.logger.Debug("Failed to query state", "error", err)
		}
		return false
	}
	return on
}

// IntendedState returns the last requested state and whether one was ever set.
func (t *Tracker) IntendedState() (bool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intended, t.intendedSet
}

// InFlight reports whether an attempt is live.
func (t *Tracker) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight != ""
}

// DisplayState is transitioning while an attempt is live, otherwise the actual state.
func (t *Tracker) DisplayState(ctx context.Context) DisplayState {
	if t.InFlight() {
		return Transitioning
	}
	if t.ActualState(ctx) {
		return On
	}
	return Off
}

// RequestStateChange flips the capability. It returns as soon as the attempt
// has been launched; the attempt outlives ctx. A second request while one is
// live returns errors.ErrTransitionInProgress. An absent subsystem is a no-op.
func (t *Tracker) RequestStateChange(ctx context.Context) error {
	id := uuid.NewString()

	t.mu.Lock()
	if t.inFlight != "" {
		current := t.inFlight
		t.mu.Unlock()
		return errors.TransitionInProgressf("%s attempt %s", t.desc.Kind, current)
	}
	t.inFlight = id
	t.mu.Unlock()

	actual, err := t.desc.Query(ctx)
	if err != nil {
		if errors.IsSubsystemAbsent(err) {
			t.release(id)
			t.logger.Debug("Ignoring toggle, subsystem absent", "error", err)
			return nil
		}
		t.logger.Debug("Failed to query state, assuming off", "error", err)
		actual = false
	}
	desired := !actual

	t.mu.Lock()
	t.intended = desired
	t.intendedSet = true
	t.mu.Unlock()

	t.logger.Info("State change requested", "attempt", id, "desired", desired)
	if t.hooks.OnStart != nil {
		t.hooks.OnStart(t.desc.Kind, id, desired)
	}

	runCtx := context.WithoutCancel(ctx)
	t.wg.Go(func() {
		result := t.reconciler.Run(runCtx, t.desc, desired, id)
		t.finish(runCtx, result)
	})
	return nil
}

func (t *Tracker) finish(ctx context.Context, result Result) {
	t.release(result.AttemptID)

	if result.Outcome == Exhausted {
		t.logger.Warn("State change not confirmed", "attempt", result.AttemptID, "desired", result.Desired, "polls", result.Polls)
		if t.notifier != nil {
			t.notifier.Notify(ctx, FailureMessage(t.desc.Label))
		}
	} else {
		t.logger.Info("State change confirmed", "attempt", result.AttemptID, "desired", result.Desired, "polls", result.Polls)
	}

	if t.hooks.OnComplete != nil {
		t.hooks.OnComplete(result)
	}
}

func (t *Tracker) release(id string) {
	t.mu.Lock()
	if t.inFlight == id {
		t.inFlight = ""
	}
	t.mu.Unlock()
}

// Wait blocks until every launched attempt has completed.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
