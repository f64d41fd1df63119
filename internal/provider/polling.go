package provider

import (
	"context"
	"math/rand"
	"time"
)

// PollingStrategy bounds a submit-then-poll loop: fixed interval, optional
// jitter, hard attempt cap, context cancellation. Every polling adapter
// shares this instead of hand-rolling a sleep loop.
type PollingStrategy struct {
	Interval    time.Duration
	MaxAttempts int
	Jitter      float64 // fraction of Interval, 0 disables
}

func DefaultPolling() PollingStrategy {
	return PollingStrategy{Interval: 5 * time.Second, MaxAttempts: 120, Jitter: 0.1}
}

// PollFunc inspects the remote state once. done=true ends the loop with
// success; an error ends it immediately.
type PollFunc func(ctx context.Context, attempt int) (done bool, err error)

// Run drives fn until it reports done, fails, the attempt budget runs out
// (TimeoutError), or ctx is cancelled.
func (p PollingStrategy) Run(ctx context.Context, op string, fn PollFunc) error {
	if p.MaxAttempts <= 0 {
		return Timeout(op, context.DeadlineExceeded)
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return classifyTransport(op, ctx.Err())
		case <-time.After(p.wait()):
		}

		done, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	return Timeout(op, ErrPollBudgetExceeded)
}

func (p PollingStrategy) wait() time.Duration {
	if p.Jitter <= 0 {
		return p.Interval
	}
	span := float64(p.Interval) * p.Jitter
	// uniform in [interval-span, interval+span]
	return p.Interval + time.Duration((rand.Float64()*2-1)*span)
}

var ErrPollBudgetExceeded = errPollBudget{}

type errPollBudget struct{}

func (errPollBudget) Error() string { return "poll attempt budget exceeded" }
