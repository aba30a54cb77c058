// Package limiter paces Organizations write calls. The Organizations
// control plane throttles aggressively; a modest client-side limit keeps a
// tier deployment from tripping it.
package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimitRPS = 5
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 50
)

// Limiter is owned by the component making the calls; it is never a global.
type Limiter struct {
	limiter *rate.Limiter
}

func New(rps int) *Limiter {
	if rps < minRateLimitRPS || rps > maxRateLimitRPS {
		rps = defaultRateLimitRPS
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), rps)}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
