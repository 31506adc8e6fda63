// Package retry provides bounded retry with exponential backoff for
// transient failures against external services.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/craftlane/chatbridge/logging"
)

// Options configures retry behavior using the functional options pattern.
type Options struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Logger receives per-attempt diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// DefaultOptions provides conservative production defaults.
var DefaultOptions = Options{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    10 * time.Second,
}

// WithMaxAttempts overrides the attempt count.
func WithMaxAttempts(n int) func(o *Options) {
	return func(o *Options) { o.MaxAttempts = n }
}

// WithBackoff overrides the delay bounds.
func WithBackoff(base, max time.Duration) func(o *Options) {
	return func(o *Options) { o.BaseDelay, o.MaxDelay = base, max }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx ends.
// Backoff doubles from BaseDelay up to MaxDelay between attempts. The last
// failure is returned wrapped; context cancellation during backoff returns
// the context error joined with the last failure.
func Do(ctx context.Context, fn func(ctx context.Context) error, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, f := range optFns {
		f(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions.MaxAttempts
	}

	var lastErr error
	delay := opts.BaseDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		opts.Logger.Warn("attempt failed",
			"attempt", attempt, "max_attempts", opts.MaxAttempts, "error", lastErr)

		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted after attempt %d: %w (last error: %v)", attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}

		delay *= 2
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", opts.MaxAttempts, lastErr)
}
