// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const (
	DefaultAttempts = 10
	DefaultMinDelay = 100 * time.Millisecond
	DefaultMaxDelay = 900 * time.Millisecond
)

// Retrier re-runs storage operations that fail because the database is
// busy. Any other error is returned at once.
type Retrier struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration

	// IsBusy classifies errors as transient. Defaults to IsBusy.
	IsBusy func(error) bool
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(context.Context, time.Duration) error
}

// DefaultRetrier returns 10 attempts with 100-900ms random delays
func DefaultRetrier() Retrier {
	return Retrier{
		Attempts: DefaultAttempts,
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
	}
}

// Do runs fn until it succeeds, fails with a non-busy error, or the
// attempts run out. Running out returns an error wrapping ErrExhausted
// and the last busy error.
func (r Retrier) Do(ctx context.Context, op string, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	isBusy := r.IsBusy
	if isBusy == nil {
		isBusy = IsBusy
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		delay := r.delay()
		slog.Warn("database is busy, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay_ms", delay.Milliseconds(),
		)
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	slog.Error("giving up on busy database", "op", op, "attempts", attempts, "error", lastErr)
	return fmt.Errorf("%s: %w after %d attempts: %w", op, ErrExhausted, attempts, lastErr)
}

func (r Retrier) delay() time.Duration {
	if r.MaxDelay <= r.MinDelay {
		return r.MinDelay
	}
	return r.MinDelay + time.Duration(rand.Int63n(int64(r.MaxDelay-r.MinDelay+1)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
