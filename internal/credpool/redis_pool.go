package credpool

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPool is a best-effort cross-replica variant of Pool: instead of
// an in-process limiter, each credential's usage is tracked in a Redis
// one-minute counter window, opened by the window's first request and
// shared by every discovery replica. Grounded on the
// teacher's RiotRateLimiter, which keyed its windows as
// "riot:personal_limit:2min:%d" / "riot:burst_limit:10s:%d".
//
// This does not coordinate fleet-wide request spacing across hosts —
// each replica still paces its own requests independently — it only
// prevents the combined fleet from exceeding a credential's per-minute
// budget when summed across replicas.
type RedisPool struct {
	rdb   *redis.Client
	creds []Credential
}

// NewRedisPool builds a Redis-backed pool against an existing client.
func NewRedisPool(rdb *redis.Client, creds []Credential) (*RedisPool, error) {
	if len(creds) == 0 {
		return nil, fmt.Errorf("credpool: at least one credential is required")
	}
	return &RedisPool{rdb: rdb, creds: creds}, nil
}

func windowKey(key string) string {
	return fmt.Sprintf("credpool:window:1min:%s", key)
}

// TryAcquire attempts to reserve one request slot for cred within the
// current one-minute window, incrementing the shared counter. It
// returns false without blocking if the credential is already at
// budget this window; the caller picks another credential or waits.
func (p *RedisPool) TryAcquire(ctx context.Context, cred Credential) (bool, error) {
	key := windowKey(cred.Key)

	pipe := p.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("credpool: redis pipeline: %w", err)
	}

	count, err := incr.Result()
	if err != nil {
		return false, fmt.Errorf("credpool: redis incr result: %w", err)
	}

	if count > int64(cred.BudgetPerMinute) {
		return false, nil
	}
	return true, nil
}

// Acquire round-robins through the pool's credentials, returning the
// first one with remaining budget this window. It blocks briefly
// between sweeps if every credential is currently exhausted.
func (p *RedisPool) Acquire(ctx context.Context) (string, error) {
	for {
		for _, cred := range p.creds {
			ok, err := p.TryAcquire(ctx, cred)
			if err != nil {
				return "", err
			}
			if ok {
				return cred.Key, nil
			}
		}

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// RemainingThisWindow returns the requests left in the current minute
// for a given credential, for diagnostics/metrics.
func (p *RedisPool) RemainingThisWindow(ctx context.Context, cred Credential) (int, error) {
	val, err := p.rdb.Get(ctx, windowKey(cred.Key)).Int64()
	if err == redis.Nil {
		return cred.BudgetPerMinute, nil
	}
	if err != nil {
		return 0, fmt.Errorf("credpool: redis get: %w", err)
	}
	remaining := cred.BudgetPerMinute - int(val)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
