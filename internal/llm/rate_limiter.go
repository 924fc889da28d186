package llm

import (
	"time"

	"golang.org/x/time/rate"
)

// NewRateLimiter returns a token bucket that admits requestsPerMinute calls
// per minute with no burst. A non-positive rate means no limiter.
func NewRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
