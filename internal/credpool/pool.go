// Package credpool implements the credential pool & pacer (C1): a
// fleet of upstream API keys, each with its own per-minute request
// budget, handed out one at a time so no caller ever issues requests
// faster than the fleet-wide rate the upstream allows.
//
// Grounded on the teacher's internal/riot.RiotRateLimiter sliding
// window, generalized from a single key to a pool and from a fixed
// window counter to golang.org/x/time/rate's token bucket.
package credpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Credential is one upstream API key and its per-minute request budget.
type Credential struct {
	Key             string
	BudgetPerMinute int
}

// Stats reports per-credential usage, mirroring the teacher's
// RiotClientStats/RiotRateLimiterStats shape.
type Stats struct {
	Key               string
	RequestsThisMinute int64
	RequestsToday      int64
	RateLimitHits      int64
}

type slot struct {
	cred    Credential
	limiter *rate.Limiter

	mu                 sync.Mutex
	requestsThisMinute int64
	windowStart        time.Time
	requestsToday      int64
	dayStart           time.Time
	rateLimitHits      int64
}

// Pool hands out credentials for outbound upstream requests, pacing
// the fleet as a whole to 1/Σbudget seconds between any two grants and
// each individual credential to its own per-minute budget.
type Pool struct {
	mu    sync.Mutex
	slots []*slot

	fleetInterval time.Duration
	lastGrant     time.Time
}

// NewPool builds a pool from the given credentials; Acquire may hand out
// any of them.
func NewPool(creds []Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("credpool: at least one credential is required")
	}

	totalBudget := 0
	slots := make([]*slot, len(creds))
	now := time.Now()
	for i, c := range creds {
		if c.BudgetPerMinute <= 0 {
			return nil, fmt.Errorf("credpool: credential %q has non-positive budget", c.Key)
		}
		totalBudget += c.BudgetPerMinute
		perSecond := float64(c.BudgetPerMinute) / 60.0
		slots[i] = &slot{
			cred:        c,
			limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
			windowStart: now,
			dayStart:    now,
		}
	}

	return &Pool{
		slots:         slots,
		fleetInterval: time.Duration(float64(time.Minute) / float64(totalBudget)),
	}, nil
}

// Acquire blocks until the fleet-wide pacing gate and the soonest
// eligible credential's own limiter admit a request, then returns that
// credential's key. Selects by next-eligible instant (spec §4.1)
// rather than round-robin, so an asymmetric budget fleet converges on
// its combined rate instead of collapsing toward its smallest
// credential's rate.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	now := time.Now()

	reservations := make([]*rate.Reservation, len(p.slots))
	bestIdx := 0
	for i, s := range p.slots {
		reservations[i] = s.limiter.ReserveN(now, 1)
	}
	bestDelay := reservations[0].DelayFrom(now)
	for i := 1; i < len(reservations); i++ {
		if d := reservations[i].DelayFrom(now); d < bestDelay {
			bestDelay = d
			bestIdx = i
		}
	}
	for i, r := range reservations {
		if i != bestIdx {
			r.Cancel()
		}
	}
	s := p.slots[bestIdx]

	wait := p.fleetInterval - time.Since(p.lastGrant)
	if bestDelay > wait {
		wait = bestDelay
	}
	p.lastGrant = time.Now()
	p.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			reservations[bestIdx].Cancel()
			s.mu.Lock()
			s.rateLimitHits++
			s.mu.Unlock()
			return "", ctx.Err()
		}
	}

	s.recordRequest()
	return s.cred.Key, nil
}

func (s *slot) recordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.windowStart) >= time.Minute {
		s.requestsThisMinute = 0
		s.windowStart = now
	}
	if now.Sub(s.dayStart) >= 24*time.Hour {
		s.requestsToday = 0
		s.dayStart = now
	}
	s.requestsThisMinute++
	s.requestsToday++
}

// Stats returns current usage for every credential in the pool.
func (p *Pool) Stats() []Stats {
	out := make([]Stats, len(p.slots))
	for i, s := range p.slots {
		s.mu.Lock()
		out[i] = Stats{
			Key:                s.cred.Key,
			RequestsThisMinute: s.requestsThisMinute,
			RequestsToday:      s.requestsToday,
			RateLimitHits:      s.rateLimitHits,
		}
		s.mu.Unlock()
	}
	return out
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.slots)
}
