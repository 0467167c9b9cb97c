package capability

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

const (
	// DefaultMaxAttempts bounds the polls after a command.
	DefaultMaxAttempts = 15
	// DefaultPollInterval separates two polls.
	DefaultPollInterval = time.Second
)

// Outcome is the terminal state of a reconciliation attempt.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Exhausted Outcome = "exhausted"
)

// Result describes a finished attempt.
type Result struct {
	AttemptID string        `json:"attempt_id"`
	Kind      Kind          `json:"kind"`
	Desired   bool          `json:"desired"`
	Polls     int           `json:"polls"`
	Outcome   Outcome       `json:"outcome"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Reconciler issues a command once and confirms it by polling.
type Reconciler struct {
	MaxAttempts  int
	PollInterval time.Duration
	// Sleep waits between polls; nil means time.Sleep.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// NewReconciler returns a reconciler with the default budget.
func NewReconciler(logger *slog.Logger) *Reconciler {
	return &Reconciler{
		MaxAttempts:  DefaultMaxAttempts,
		PollInterval: DefaultPollInterval,
		Logger:       logger,
	}
}

// Run drives d toward desired. Prepare and command failures are logged and
// polling still runs, since the subsystem may change on its own. Polls are
// strictly sequential and sleeps only happen between them.
func (r *Reconciler) Run(ctx context.Context, d Descriptor, desired bool, attemptID string) Result {
	logger := r.logger().With("capability", d.Kind, "attempt", attemptID, "desired", desired)
	start := time.Now()

	if d.Prepare != nil {
		if err := d.Prepare(ctx, desired); err != nil {
			logger.Warn("Pre-condition failed", "error", err)
		}
	}
	if err := d.Command(ctx, desired); err != nil {
		logger.Warn("State change command failed", "error", err)
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	result := Result{AttemptID: attemptID, Kind: d.Kind, Desired: desired, Outcome: Exhausted}
	for poll := 1; poll <= maxAttempts; poll++ {
		if poll > 1 {
			r.sleep(r.PollInterval)
		}
		result.Polls = poll

		actual, err := d.Query(ctx)
		if err != nil {
			logger.Debug("State poll failed", "poll", poll, "error", err, "absent", errors.IsSubsystemAbsent(err))
			actual = false
		}
		if actual == desired {
			result.Outcome = Succeeded
			break
		}
	}

	result.Elapsed = time.Since(start)
	logger.Debug("Reconciliation finished", "outcome", result.Outcome, "polls", result.Polls, "elapsed", result.Elapsed)
	return result
}

func (r *Reconciler) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
