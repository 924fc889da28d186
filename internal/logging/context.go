package logging

import (
	"context"
	"time"
)

// DetachContextWithTimeout returns a context that ignores cancellation of
// parent but carries its own deadline. History writes use it so that a
// finished search is still recorded after the request context ends.
func DetachContextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
