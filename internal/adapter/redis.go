package adapter

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisClient defines the subset of Redis operations the coordination store
// needs: SET NX for lease locks, Lua eval for owner-checked release, and
// list operations for the reward event queues.
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) *redis.StatusCmd

	// SetNX sets key to value with a TTL only if the key does not exist
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd

	// Eval runs a Lua script on the server
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd

	// LPush prepends values to a list
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd

	// RPush appends values to a list
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd

	// LMove atomically moves an element between lists
	LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd

	// LLen returns the length of a list
	LLen(ctx context.Context, key string) *redis.IntCmd

	// LRange returns a range of list elements
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd

	// Del removes keys
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// NewRateLimiter creates a distributed rate limiter backed by this client
	NewRateLimiter() RedisRateLimiter

	// Close closes the Redis connection
	Close() error
}

// RealRedisClient wraps the actual Redis client
type RealRedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) RedisClient {
	return &RealRedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *RealRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return r.client.Ping(ctx)
}

func (r *RealRedisClient) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	return r.client.SetNX(ctx, key, value, expiration)
}

func (r *RealRedisClient) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return r.client.Eval(ctx, script, keys, args...)
}

func (r *RealRedisClient) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	return r.client.LPush(ctx, key, values...)
}

func (r *RealRedisClient) RPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	return r.client.RPush(ctx, key, values...)
}

func (r *RealRedisClient) LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd {
	return r.client.LMove(ctx, source, destination, srcpos, destpos)
}

func (r *RealRedisClient) LLen(ctx context.Context, key string) *redis.IntCmd {
	return r.client.LLen(ctx, key)
}

func (r *RealRedisClient) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	return r.client.LRange(ctx, key, start, stop)
}

func (r *RealRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return r.client.Del(ctx, keys...)
}

func (r *RealRedisClient) NewRateLimiter() RedisRateLimiter {
	return NewRateLimiter(redis_rate.NewLimiter(r.client))
}

func (r *RealRedisClient) Close() error {
	return r.client.Close()
}

// RedisRateLimiter defines the interface for distributed rate limiting operations
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisRateLimiter=MockRedisRateLimiter
type RedisRateLimiter interface {
	// Allow checks if a request is allowed based on the rate limit
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RealRateLimiter wraps the redis_rate.Limiter
type RealRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRateLimiter creates a new rate limiter from a redis_rate.Limiter
func NewRateLimiter(limiter *redis_rate.Limiter) RedisRateLimiter {
	return &RealRateLimiter{limiter: limiter}
}

// Allow checks if a request is allowed based on the rate limit
func (r *RealRateLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	return r.limiter.Allow(ctx, key, limit)
}
