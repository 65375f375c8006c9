package capture

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// throttle spaces page loads: once an attempt ends, the next load waits
// for the full delay. A zero delay disables it.
type throttle struct {
	limit   rate.Limit
	limiter *rate.Limiter
}

func newThrottle(delay time.Duration) *throttle {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &throttle{limit: limit, limiter: rate.NewLimiter(limit, 1)}
}

// wait blocks until the next page load may start.
func (t *throttle) wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// done marks the end of an attempt. The bucket is restarted empty, so the
// following wait lasts one full delay whatever the attempt took.
func (t *throttle) done() {
	t.limiter = rate.NewLimiter(t.limit, 1)
	t.limiter.Allow()
}
