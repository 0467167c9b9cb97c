package surface

import (
	"context"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/events"
	"github.com/jmylchreest/radiotoggle/internal/observer"
	"github.com/jmylchreest/radiotoggle/pkg/brightness"
	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

// Registry owns the live trackers, the brightness controller and the
// observer for one enabled lifetime of the shell.
type Registry struct {
	trackers   map[capability.Kind]*capability.Tracker
	brightness *brightness.Controller
	observer   *observer.Observer
}

// TransitionStartedEvent is published when a tracker accepts a request.
type TransitionStartedEvent struct {
	Kind      capability.Kind `json:"kind"`
	AttemptID string          `json:"attempt_id"`
	Desired   bool            `json:"desired"`
}

func (s *Shell) newRegistry() (*Registry, error) {
	r := &Registry{trackers: make(map[capability.Kind]*capability.Tracker)}

	reconciler := capability.NewReconciler(s.logger)
	if s.cfg.MaxAttempts > 0 {
		reconciler.MaxAttempts = s.cfg.MaxAttempts
	}
	if s.cfg.PollInterval > 0 {
		reconciler.PollInterval = s.cfg.PollInterval
	}
	reconciler.Sleep = s.cfg.Sleep

	hooks := capability.Hooks{
		OnStart: func(kind capability.Kind, attemptID string, desired bool) {
			s.cfg.Metrics.TransitionStarted(kind)
			s.cfg.Bus.Publish(events.NewEvent(events.TransitionStarted, TransitionStartedEvent{
				Kind: kind, AttemptID: attemptID, Desired: desired,
			}))
		},
		OnComplete: func(result capability.Result) {
			s.cfg.Metrics.TransitionFinished(result)
			s.cfg.Bus.Publish(events.NewEvent(events.TransitionFinished, result))
			s.Update(context.Background(), "transition:"+string(result.Kind))
		},
	}

	for _, desc := range s.cfg.Descriptors {
		tracker, err := capability.NewTracker(desc, reconciler, s.cfg.Notifier, hooks, s.logger)
		if err != nil {
			return nil, err
		}
		r.trackers[desc.Kind] = tracker
	}

	ctrl, err := brightness.NewController(s.cfg.Store, s.cfg.Limits, s.cfg.AutoAvailable, s.logger,
		brightness.WithPreviewer(s.cfg.Previewer), brightness.WithEventBus(s.cfg.Bus))
	if err != nil {
		return nil, err
	}
	r.brightness = ctrl

	obs, err := observer.New(s.cfg.Store, s.cfg.Connectivity, s.Update, s.logger)
	if err != nil {
		return nil, err
	}
	r.observer = obs
	return r, nil
}

// Tracker returns the tracker for kind.
func (r *Registry) Tracker(kind capability.Kind) (*capability.Tracker, bool) {
	t, ok := r.trackers[kind]
	return t, ok
}

// Brightness returns the brightness controller.
func (r *Registry) Brightness() *brightness.Controller {
	return r.brightness
}

// Observer returns the change observer.
func (r *Registry) Observer() *observer.Observer {
	return r.observer
}

// Wait blocks until every in-flight attempt of the registry has finished.
func (r *Registry) Wait() {
	for _, t := range r.trackers {
		t.Wait()
	}
}

// WaitTimeout is Wait bounded by d. It reports whether everything finished.
func (r *Registry) WaitTimeout(d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
