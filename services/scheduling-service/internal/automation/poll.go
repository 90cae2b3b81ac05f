package automation

import (
	"context"
	"errors"
	"time"
)

var ErrPollBudgetExhausted = errors.New("automation: poll budget exhausted")

// Policy is a flat-rate poll: MaxAttempts tries, Delay apart, no backoff.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 30, Delay: 2 * time.Second}
}

// Attempts is the number of tries Poll makes. Non-positive MaxAttempts
// falls back to the default.
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultPolicy().MaxAttempts
	}
	return p.MaxAttempts
}

// Budget bounds the time Poll spends sleeping, rounded up to one Delay per
// attempt.
func (p Policy) Budget() time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	return time.Duration(p.Attempts()) * p.Delay
}

// StepFunc performs one attempt. done=true stops polling successfully; a
// non-nil error stops polling and is returned as is.
type StepFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poll runs step until it reports done, fails, the budget runs out or ctx is
// cancelled. It sleeps between attempts only, so the worst case wait is
// (MaxAttempts-1) x Delay plus the time spent in step.
func Poll(ctx context.Context, p Policy, step StepFunc) error {
	attempts := p.Attempts()
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := step(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt < attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
	}
	return ErrPollBudgetExhausted
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
