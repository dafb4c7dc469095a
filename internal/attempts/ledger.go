// Package attempts counts tries per application and workflow step and
// enforces the retry ceiling.
package attempts

import (
	"context"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

// DefaultMaxAttempts is the retry ceiling for limited steps.
const DefaultMaxAttempts = 3

// Store persists attempt counters keyed by (application, step). Counters are
// created lazily at zero.
type Store interface {
	Increment(ctx context.Context, appID id.ApplicationID, step int) (int, error)
	Count(ctx context.Context, appID id.ApplicationID, step int) (int, error)
	// IncrementBelow increments only while the stored count is below max, in
	// one atomic operation. It returns the resulting count and whether the
	// increment happened.
	IncrementBelow(ctx context.Context, appID id.ApplicationID, step, max int) (int, bool, error)
}

// Ledger is the attempt ledger used by the workflow orchestrator.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func validKey(appID id.ApplicationID, step int) error {
	if appID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "application id is required")
	}
	if step < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "step must be positive")
	}
	return nil
}

// RecordAttempt increments the counter exactly once and returns the new count.
// It is not idempotent.
func (l *Ledger) RecordAttempt(ctx context.Context, appID id.ApplicationID, step int) (int, error) {
	if err := validKey(appID, step); err != nil {
		return 0, err
	}
	n, err := l.store.Increment(ctx, appID, step)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
	}
	return n, nil
}

// AttemptsRemaining is max minus the recorded count, floored at zero.
func (l *Ledger) AttemptsRemaining(ctx context.Context, appID id.ApplicationID, step, max int) (int, error) {
	if err := validKey(appID, step); err != nil {
		return 0, err
	}
	n, err := l.store.Count(ctx, appID, step)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read attempts")
	}
	return Remaining(n, max), nil
}

// Consume records an attempt only if fewer than max were recorded. When the
// ceiling is already reached the count is left untouched and allowed is false.
func (l *Ledger) Consume(ctx context.Context, appID id.ApplicationID, step, max int) (count int, allowed bool, err error) {
	if err := validKey(appID, step); err != nil {
		return 0, false, err
	}
	count, allowed, err = l.store.IncrementBelow(ctx, appID, step, max)
	if err != nil {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
	}
	return count, allowed, nil
}

func Remaining(count, max int) int {
	if count >= max {
		return 0
	}
	return max - count
}
