package ingest

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies three tiers of rate limiting to outbound fetches:
// global (protect this service), per-domain (respect sources), and per-user
// (fair usage across callers).
type RateLimiter struct {
	global     *rate.Limiter
	perDomain  sync.Map // map[string]*rate.Limiter
	perUser    sync.Map // map[string]*rate.Limiter
	perUserCap float64
}

// NewRateLimiter creates the three-tier limiter
func NewRateLimiter(globalRate, perUserRate float64) *RateLimiter {
	if globalRate <= 0 {
		globalRate = 10.0
	}
	if perUserRate <= 0 {
		perUserRate = 5.0
	}
	return &RateLimiter{
		global:     rate.NewLimiter(rate.Limit(globalRate), int(globalRate*2)),
		perUserCap: perUserRate,
	}
}

// Wait blocks until all three tiers admit a fetch, honoring the domain's
// robots.txt crawl delay.
func (rl *RateLimiter) Wait(ctx context.Context, userID, domain string, delay time.Duration) error {
	if err := rl.global.Wait(ctx); err != nil {
		return err
	}
	if err := rl.domainLimiter(domain, delay).Wait(ctx); err != nil {
		return err
	}
	return rl.userLimiter(userID).Wait(ctx)
}

func (rl *RateLimiter) domainLimiter(domain string, delay time.Duration) *rate.Limiter {
	if limiter, ok := rl.perDomain.Load(domain); ok {
		return limiter.(*rate.Limiter)
	}

	perSecond := 5.0
	if delay > 0 {
		perSecond = 1.0 / delay.Seconds()
	}
	if perSecond > 5.0 {
		perSecond = 5.0
	}
	if perSecond < 0.2 {
		perSecond = 0.2 // at least one request per 5 seconds
	}

	actual, _ := rl.perDomain.LoadOrStore(domain, rate.NewLimiter(rate.Limit(perSecond), 1))
	return actual.(*rate.Limiter)
}

func (rl *RateLimiter) userLimiter(userID string) *rate.Limiter {
	if limiter, ok := rl.perUser.Load(userID); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := rl.perUser.LoadOrStore(userID, rate.NewLimiter(rate.Limit(rl.perUserCap), int(rl.perUserCap*2)))
	return actual.(*rate.Limiter)
}
