package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
)

// Bus is the producer side of the reward event queue: one redis FIFO list
// per chain. Events are transient; durability comes from the committed
// entity rows, not the queue.
type Bus struct {
	redis adapter.RedisClient
}

// NewBus creates the producer handle over the coordination store
func NewBus(redisClient adapter.RedisClient) *Bus {
	return &Bus{redis: redisClient}
}

// Dispatch appends events to the chain's queue in order
func (b *Bus) Dispatch(ctx context.Context, chain domain.Chain, events []domain.ChallengeEvent) error {
	if len(events) == 0 {
		return nil
	}
	encoded := make([]any, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.ID, err)
		}
		encoded = append(encoded, data)
	}
	if err := b.redis.RPush(ctx, domain.QueueScope(chain), encoded...).Err(); err != nil {
		return fmt.Errorf("push %d events to %s: %w", len(events), domain.QueueScope(chain), err)
	}
	return nil
}

// Handler consumes one batch of reward events. Handlers must be idempotent:
// the queue delivers at least once and a crashed consumer replays its
// in-flight batch on restart.
type Handler interface {
	HandleEvents(ctx context.Context, events []domain.ChallengeEvent) error
}

// Consumer is the worker side of the queue. Events move from the queue into
// a consumer-owned processing list before handling, so a crash loses
// nothing; Drain puts leftovers back on startup.
type Consumer struct {
	redis      adapter.RedisClient
	chain      domain.Chain
	queue      string
	processing string
	batch      int
	poll       time.Duration
	clock      adapter.Clock
	pool       pond.Pool
	handlers   map[domain.ChallengeEventType][]Handler
}

// ConsumerParams wires one chain's reward consumer
type ConsumerParams struct {
	Redis      adapter.RedisClient
	Chain      domain.Chain
	ConsumerID string
	BatchSize  int
	Poll       time.Duration
	PoolSize   int
	Clock      adapter.Clock
}

// NewConsumer creates the reward event consumer for one chain
func NewConsumer(params ConsumerParams) *Consumer {
	queue := domain.QueueScope(params.Chain)
	return &Consumer{
		redis:      params.Redis,
		chain:      params.Chain,
		queue:      queue,
		processing: fmt.Sprintf("%s:processing:%s", queue, params.ConsumerID),
		batch:      params.BatchSize,
		poll:       params.Poll,
		clock:      params.Clock,
		pool:       pond.NewPool(params.PoolSize),
		handlers:   make(map[domain.ChallengeEventType][]Handler),
	}
}

// Register subscribes a handler to one or more event types
func (c *Consumer) Register(handler Handler, types ...domain.ChallengeEventType) {
	for _, t := range types {
		c.handlers[t] = append(c.handlers[t], handler)
	}
}

// Drain moves any in-flight events back to the head of the queue,
// preserving their original order. It runs on startup and again before
// every pop, so a failed batch is requeued rather than overwritten by the
// next batch's acknowledgement.
func (c *Consumer) Drain(ctx context.Context) error {
	moved := 0
	for {
		err := c.redis.LMove(ctx, c.processing, c.queue, "right", "left").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return fmt.Errorf("drain %s: %w", c.processing, err)
		}
		moved++
	}
	if moved > 0 {
		logger.InfoCtx(ctx, "requeued in-flight reward events",
			zap.String("chain", string(c.chain)), zap.Int("events", moved))
	}
	return nil
}

// Run drains once and then polls the queue until the context is canceled
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.Drain(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			c.pool.StopAndWait()
			return ctx.Err()
		case <-c.clock.After(c.poll):
		}
		for {
			n, err := c.ProcessBatch(ctx)
			if err != nil {
				logger.ErrorCtx(ctx, err, zap.String("chain", string(c.chain)))
				break
			}
			if n == 0 {
				break
			}
		}
	}
}

// ProcessBatch pops up to one batch of events, fans them out to the
// registered handlers grouped by event type, and acknowledges the batch
// only after every handler succeeded
func (c *Consumer) ProcessBatch(ctx context.Context) (int, error) {
	// Requeue whatever a failed or interrupted batch left behind, so the
	// processing list holds only the entries popped below and the ack
	// cannot destroy unhandled events.
	if err := c.Drain(ctx); err != nil {
		return 0, err
	}
	events, popped, err := c.popBatch(ctx)
	if err != nil {
		return 0, err
	}
	if popped == 0 {
		return 0, nil
	}
	if len(events) == 0 {
		// batch was entirely malformed, acknowledge and move on
		if err := c.redis.Del(ctx, c.processing).Err(); err != nil {
			return 0, fmt.Errorf("ack batch: %w", err)
		}
		return 0, nil
	}

	byType := make(map[domain.ChallengeEventType][]domain.ChallengeEvent)
	for _, event := range events {
		byType[event.Type] = append(byType[event.Type], event)
	}

	group := c.pool.NewGroup()
	for eventType, typed := range byType {
		handlers, ok := c.handlers[eventType]
		if !ok {
			logger.DebugCtx(ctx, "no handler for event type",
				zap.String("event_type", string(eventType)), zap.Int("events", len(typed)))
			continue
		}
		for _, handler := range handlers {
			handler, typed := handler, typed
			group.SubmitErr(func() error {
				return handler.HandleEvents(ctx, typed)
			})
		}
	}
	if err := group.Wait(); err != nil {
		// leave the batch in the processing list; it replays after restart
		return 0, fmt.Errorf("handle %d events: %w", len(events), err)
	}

	if err := c.redis.Del(ctx, c.processing).Err(); err != nil {
		return 0, fmt.Errorf("ack batch: %w", err)
	}
	return len(events), nil
}

func (c *Consumer) popBatch(ctx context.Context) ([]domain.ChallengeEvent, int, error) {
	var events []domain.ChallengeEvent
	popped := 0
	for popped < c.batch {
		raw, err := c.redis.LMove(ctx, c.queue, c.processing, "left", "right").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return nil, popped, fmt.Errorf("pop from %s: %w", c.queue, err)
		}
		popped++
		var event domain.ChallengeEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			logger.WarnCtx(ctx, "dropping malformed reward event",
				zap.String("chain", string(c.chain)), zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, popped, nil
}
