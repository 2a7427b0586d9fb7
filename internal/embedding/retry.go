package embedding

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/openai/openai-go"
)

// IsRetryable checks if an error is worth retrying: rate limits,
// server-side failures, and transport errors (refused connections,
// resets, timeouts). Caller mistakes (4xx) are not.
func IsRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
