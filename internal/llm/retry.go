package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RetryPolicy is a fixed-count, fixed-delay retry schedule.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy returns three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Second}
}

// RetryingOracle adds retries, pacing and a session-wide quota latch to a
// Backend. Once the backend reports a quota rejection every later call
// returns ErrQuotaExceeded without touching the network.
type RetryingOracle struct {
	backend Backend
	policy  RetryPolicy
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error

	quotaHit atomic.Bool
	calls    atomic.Int64
}

// RetryOption configures a RetryingOracle.
type RetryOption func(*RetryingOracle)

// WithLimiter paces calls through l. Nil disables pacing.
func WithLimiter(l *rate.Limiter) RetryOption {
	return func(o *RetryingOracle) {
		o.limiter = l
	}
}

// WithSleep replaces the delay function between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(o *RetryingOracle) {
		o.sleep = fn
	}
}

// NewRetryingOracle wraps backend.
func NewRetryingOracle(backend Backend, policy RetryPolicy, opts ...RetryOption) *RetryingOracle {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	o := &RetryingOracle{
		backend: backend,
		policy:  policy,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the wrapped backend's name.
func (o *RetryingOracle) Name() string {
	return o.backend.Name()
}

// Backend returns the wrapped backend.
func (o *RetryingOracle) Backend() Backend {
	return o.backend
}

// QuotaExceeded reports whether the session has hit the backend's quota.
func (o *RetryingOracle) QuotaExceeded() bool {
	return o.quotaHit.Load()
}

// Calls returns how many backend requests were made.
func (o *RetryingOracle) Calls() int64 {
	return o.calls.Load()
}

// GenerateContent asks the backend, retrying transient failures and empty
// replies. Quota rejections return ErrQuotaExceeded immediately.
func (o *RetryingOracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if o.quotaHit.Load() {
		return "", ErrQuotaExceeded
	}

	var lastErr error
	for attempt := 1; attempt <= o.policy.Attempts; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
			}
		}

		o.calls.Add(1)
		text, err := o.backend.GenerateContent(ctx, prompt)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyResponse
		}
		if err == nil {
			return text, nil
		}

		if IsQuotaSignal(err) {
			o.quotaHit.Store(true)
			log.Warn().Str("backend", o.backend.Name()).Err(err).Msg("quota exceeded, switching to local search only")
			return "", ErrQuotaExceeded
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
		}

		lastErr = err
		log.Debug().Str("backend", o.backend.Name()).Int("attempt", attempt).Err(err).Msg("oracle call failed")

		if attempt < o.policy.Attempts {
			if err := o.sleep(ctx, o.policy.Delay); err != nil {
				return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
			}
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrOracleUnavailable, o.policy.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
