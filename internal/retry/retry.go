package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrExhausted reports that an operation failed on every allowed attempt.
// The caller logs it and moves on to the next item/source; one pair's total
// failure never aborts the batch.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Options tune the orchestrator. The delay is fixed, not exponential.
type Options struct {
	MaxAttempts int
	Delay       time.Duration
}

// Outcome records how an operation fared across attempts.
type Outcome struct {
	// Attempts is the number of attempts actually made.
	Attempts int
	// Failures is the number of failed attempts. Equals Attempts on
	// exhaustion, Attempts-1 on eventual success.
	Failures int
}

// Orchestrator wraps one fetch-and-reconcile attempt with bounded retries.
type Orchestrator struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs an Orchestrator.
func New(opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Orchestrator{opts: opts, logger: logger.With().Str("component", "retry").Logger()}
}

// Do runs op up to MaxAttempts times, sleeping the fixed delay between
// failures. Context cancellation interrupts the sleep and is returned as-is.
// On exhaustion the last error is wrapped with ErrExhausted.
func (o *Orchestrator) Do(ctx context.Context, label string, op func(ctx context.Context) error) (Outcome, error) {
	var outcome Outcome
	var lastErr error

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		outcome.Attempts = attempt
		err := op(ctx)
		if err == nil {
			return outcome, nil
		}

		outcome.Failures++
		lastErr = err
		o.logger.Warn().
			Str("operation", label).
			Int("attempt", attempt).
			Int("max_attempts", o.opts.MaxAttempts).
			Err(err).
			Msg("attempt failed")

		if attempt == o.opts.MaxAttempts {
			break
		}

		if err := o.sleep(ctx); err != nil {
			return outcome, err
		}
	}

	return outcome, fmt.Errorf("%w: %s after %d attempts: %v", ErrExhausted, label, outcome.Attempts, lastErr)
}

func (o *Orchestrator) sleep(ctx context.Context) error {
	if o.opts.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(o.opts.Delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
