package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles index refreshes for one library root.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter allows perSecond refreshes on average and up to burst at once.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow takes n tokens if they are available right now.
func (l *Limiter) Allow(n int) bool {
	return l.bucket.AllowN(time.Now(), n)
}

// Wait takes n tokens, blocking until they refill. It fails when ctx ends
// first or n exceeds the burst.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.bucket.WaitN(ctx, n)
}
