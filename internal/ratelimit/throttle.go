package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/chain"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
)

// Limit describes the request budget shared by every worker polling a chain.
type Limit struct {
	RequestsPerSecond int
	Burst             int
}

// Throttle paces RPC calls against one chain. The budget is enforced in
// Redis so concurrently deployed workers share it; a local token bucket
// keeps the pace when Redis is unreachable.
type Throttle struct {
	key         string
	limit       redis_rate.Limit
	distributed adapter.RedisRateLimiter
	local       *rate.Limiter
	clock       adapter.Clock
}

// NewThrottle creates a throttle for the given chain.
func NewThrottle(limiter adapter.RedisRateLimiter, c domain.Chain, l Limit, clock adapter.Clock) (*Throttle, error) {
	if l.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %d", l.RequestsPerSecond)
	}
	if l.Burst <= 0 {
		l.Burst = l.RequestsPerSecond
	}

	limit := redis_rate.PerSecond(l.RequestsPerSecond)
	limit.Burst = l.Burst

	return &Throttle{
		key:         fmt.Sprintf("indexer:rate:%s", c),
		limit:       limit,
		distributed: limiter,
		local:       rate.NewLimiter(rate.Limit(l.RequestsPerSecond), l.Burst),
		clock:       clock,
	}, nil
}

// Wait blocks until a request token is available or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	// The local bucket runs at the full budget and acts as a pre-filter,
	// so a single worker never hammers Redis faster than it could be
	// allowed anyway.
	if err := t.local.Wait(ctx); err != nil {
		return err
	}

	for {
		res, err := t.distributed.Allow(ctx, t.key, t.limit)
		if err != nil {
			// Redis is unavailable. The local bucket already paced this
			// call, so let it through rather than stall ingestion.
			logger.WarnCtx(ctx, "distributed rate limit unavailable, using local pacing",
				zap.String("key", t.key),
				zap.Error(err))
			return nil
		}
		if res.Allowed > 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(res.RetryAfter):
		}
	}
}

// client wraps a chain client so every RPC call draws from the throttle.
type client struct {
	inner    chain.Client
	throttle *Throttle
}

// Wrap returns a chain client whose calls are paced by the throttle.
// A nil throttle returns the inner client unchanged.
func Wrap(inner chain.Client, t *Throttle) chain.Client {
	if t == nil {
		return inner
	}
	return &client{inner: inner, throttle: t}
}

func (c *client) GetNodeInfo(ctx context.Context) (domain.NodeInfo, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return domain.NodeInfo{}, err
	}
	return c.inner.GetNodeInfo(ctx)
}

func (c *client) GetBlock(ctx context.Context, height uint64) (*domain.Block, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetBlock(ctx, height)
}
