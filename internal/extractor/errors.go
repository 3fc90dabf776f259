package extractor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fiscalio/internal/domain"
)

// TransientError marks a failure worth retrying: timeouts, connection
// resets, 5xx-equivalent provider faults. Malformed input and auth
// rejections are never wrapped in it.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError indicates an external provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0,
// defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// IsTransient reports whether an error qualifies for the bounded retry
// policy. Vision timeouts and unparsable replies are transient up to the
// retry budget; unsupported input, malformed XML, and auth rejections are
// not.
func IsTransient(err error) bool {
	var (
		transient *TransientError
		rateLimit *RateLimitError
		ocrFail   *domain.OCRFailureError
		llmTime   *domain.LLMTimeoutError
		llmFormat *domain.LLMResponseFormatError
	)
	switch {
	case errors.As(err, &transient),
		errors.As(err, &rateLimit),
		errors.As(err, &ocrFail),
		errors.As(err, &llmTime),
		errors.As(err, &llmFormat):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}
