// Package ingest drives the per-chain block ingestion loop: acquire the
// chain's lease lock, fetch the next block, process its transactions, commit
// the result in one database transaction and hand reward events to the bus.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/domain"
)

// releaseScript deletes the lock key only when the caller still owns it, so
// a worker whose lease expired cannot release a successor's lock
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Lock is a non-blocking per-chain lease. The TTL bounds how long a crashed
// worker can stall its chain; a live worker finishes a tick well inside it.
type Lock struct {
	redis adapter.RedisClient
	key   string
	ttl   time.Duration
	owner string
}

// NewLock creates the lease lock guarding one chain's ingestion worker
func NewLock(redis adapter.RedisClient, chain domain.Chain, ttl time.Duration) *Lock {
	return &Lock{
		redis: redis,
		key:   domain.LockScope(chain),
		ttl:   ttl,
	}
}

// Acquire takes the lease or returns domain.ErrLockDenied immediately when
// another worker holds it
func (l *Lock) Acquire(ctx context.Context) error {
	owner := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return domain.ErrLockDenied
	}
	l.owner = owner
	return nil
}

// Release gives the lease back. domain.ErrLockLost means the lease expired
// and may have been taken over; the caller logs it and moves on.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	res, err := l.redis.Eval(ctx, releaseScript, []string{l.key}, owner).Result()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if deleted, ok := res.(int64); !ok || deleted == 0 {
		return domain.ErrLockLost
	}
	return nil
}
