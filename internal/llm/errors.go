package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExceeded means the backend refused for quota or rate-limit
	// reasons. It is never retried and stays in effect for the session.
	ErrQuotaExceeded = errors.New("oracle quota exceeded")

	// ErrOracleUnavailable wraps transient failures that survived all retries.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	errEmptyResponse = errors.New("empty response")
)

// IsQuotaSignal reports whether err is, or looks like, a quota rejection.
func IsQuotaSignal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit", "resource_exhausted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func quotaError(backend string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrQuotaExceeded, backend, cause)
}
