// Package retry provides exponential backoff for transient gateway failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
	defaultMaxHint      = 60 * time.Second
)

// Config represents retry configuration.
type Config struct {
	MaxAttempts    int           // Maximum number of attempts, first one included (default: 3)
	InitialBackoff time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 10s)
	MaxRetryAfter  time.Duration // Upper bound for a server-requested delay (default: 60s)
}

// StatusCoder is implemented by errors that carry an HTTP-like status code.
type StatusCoder interface {
	StatusCode() int
}

// RetryHinter is implemented by errors that carry a server-requested delay
// (Retry-After, Telegram retry_after). The next wait is at least that long.
type RetryHinter interface {
	RetryDelay() time.Duration
}

// Notify is called before each wait with the failed attempt number (1-based),
// its error and the delay before the next attempt.
type Notify func(attempt int, err error, wait time.Duration)

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialDelay
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxDelay
	}
	if c.MaxRetryAfter <= 0 {
		c.MaxRetryAfter = defaultMaxHint
	}
	return c
}

// hintedBackOff stretches the next interval to the hint left by the last
// failed attempt.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	return max(next, h.hint)
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. notify may be nil.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error, notify Notify) error {
	cfg = cfg.withDefaults()

	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(cfg.InitialBackoff),
		backoff.WithMaxInterval(cfg.MaxBackoff),
		backoff.WithMaxElapsedTime(0),
	)
	hinted := &hintedBackOff{BackOff: backoff.WithMaxRetries(exp, uint64(cfg.MaxAttempts-1))}
	b := backoff.WithContext(hinted, ctx)

	attempt := 0
	var lastErr error
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		hinted.hint = min(retryDelay(err), cfg.MaxRetryAfter)
		return err
	}, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	})
	if err == nil {
		return nil
	}

	if lastErr != nil && IsRetryable(lastErr) && attempt >= cfg.MaxAttempts {
		return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
	}
	return err
}

func retryDelay(err error) time.Duration {
	var h RetryHinter
	if errors.As(err, &h) {
		return max(h.RetryDelay(), 0)
	}
	return 0
}

// IsRetryable reports whether err looks transient.
// Timeouts, connection failures, 429 and 5xx are retryable. Other 4xx,
// cancellation and unknown errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code == 429 || code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errLower := strings.ToLower(err.Error())

	nonRetryablePatterns := []string{
		"unauthorized",
		"forbidden",
		"bad request",
		"not found",
		"context canceled",
	}
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errLower, pattern) {
			return false
		}
	}

	retryablePatterns := []string{
		"deadline exceeded",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"eof",
		"too many requests",
		"rate limit",
		"network",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errLower, pattern) {
			return true
		}
	}

	return false
}
