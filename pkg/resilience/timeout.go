package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// WithTimeout bounds fn by a deadline on a derived context. It guards the
// store procedures (normalized search, fuzzy search, autocomplete) and the
// snapshot page loads, none of which may hold a request hostage when the
// database stalls.
//
// The inner call keeps running after the deadline; it receives the derived
// context so a well-behaved driver cancels on its own. Late completions are
// logged so a stalled procedure stays visible after its caller gave up.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		logger := slog.Default().With("component", "timeout", "operation", name)
		logger.Warn("operation exceeded its deadline", "limit", timeout)
		go func() {
			err := <-done
			logger.Warn("abandoned operation finished late",
				"elapsed", time.Since(start),
				"error", err,
			)
		}()
		return fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
