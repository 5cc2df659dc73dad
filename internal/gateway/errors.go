package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/idlebot/internal/logger"
)

var ErrNotStarted = errors.New("gateway is not started")

// APIError describes a failed platform call.
type APIError struct {
	Platform    string
	Op          string
	Code        int    // HTTP or platform error code (400, 403, 429 ...)
	Description string // error text returned by the platform
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s %s: status %d", e.Platform, e.Op, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Platform, e.Op, e.Code, e.Description)
}

// StatusCode makes the error classifiable by retry.IsRetryable.
func (e *APIError) StatusCode() int {
	return e.Code
}

// RetryDelay is the wait the platform asked for, zero if none.
func (e *APIError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// LogFields returns the fields for structured logging.
func (e *APIError) LogFields() []logger.Field {
	return []logger.Field{
		{Key: "platform", Value: e.Platform},
		{Key: "op", Value: e.Op},
		{Key: "error_code", Value: e.Code},
		{Key: "error_description", Value: e.Description},
		{Key: "retry_after", Value: e.RetryAfter.String()},
	}
}
