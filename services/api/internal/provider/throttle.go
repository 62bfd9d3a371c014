package provider

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttle caps in-flight requests to one target site and optionally paces
// them to a fixed rate. It only delays requests; it never changes outcomes.
// A nil *Throttle admits everything immediately.
type Throttle struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewThrottle returns a throttle allowing maxConcurrent requests in flight and
// rps requests per second. Zero or negative values disable that limit.
// Rates below one are allowed (0.5 means one request every two seconds).
func NewThrottle(maxConcurrent int, rps float64) *Throttle {
	t := &Throttle{}
	if maxConcurrent > 0 {
		t.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	t.limiter = NewLimiter(rps)
	return t
}

// NewLimiter returns a burst-of-one limiter for rps, or nil when rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Acquire blocks until a request may start or ctx is done. The returned
// release func must be called once the request finishes.
func (t *Throttle) Acquire(ctx context.Context) (func(), error) {
	if t == nil {
		return func() {}, nil
	}
	if t.sem != nil {
		if err := t.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	release := func() {
		if t.sem != nil {
			t.sem.Release(1)
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}
