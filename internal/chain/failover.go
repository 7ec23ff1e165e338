package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
)

// Failover wraps an ordered list of clients for the same chain. Each
// operation runs against the first endpoint with a fixed-delay retry budget;
// on exhaustion it moves to the next endpoint. Only when every endpoint has
// been exhausted does the operation fail.
type Failover struct {
	chain    domain.Chain
	clients  []Client
	attempts uint64
	delay    time.Duration
}

// NewFailover creates a failover client over the given endpoints.
// attempts is the per-endpoint retry count; delay the fixed wait between
// attempts.
func NewFailover(chain domain.Chain, clients []Client, attempts uint64, delay time.Duration) *Failover {
	if attempts == 0 {
		attempts = 1
	}
	return &Failover{
		chain:    chain,
		clients:  clients,
		attempts: attempts,
		delay:    delay,
	}
}

// run executes op against each endpoint in order until one succeeds.
// domain.ErrBlockNotFound is a result, not a failure: it short-circuits
// without consuming the retry budget.
func (f *Failover) run(ctx context.Context, op string, fn func(ctx context.Context, c Client) error) error {
	var errs []error

	for i, client := range f.clients {
		attempt := func() error {
			err := fn(ctx, client)
			if errors.Is(err, domain.ErrBlockNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}

		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(f.delay), f.attempts-1),
			ctx)

		err := backoff.Retry(attempt, policy)
		if err == nil || errors.Is(err, domain.ErrBlockNotFound) {
			return err
		}

		logger.WarnCtx(ctx, "chain endpoint exhausted, trying next",
			zap.String("chain", string(f.chain)),
			zap.String("op", op),
			zap.Int("endpoint", i),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("endpoint %d: %w", i, err))
	}

	return fmt.Errorf("%s failed on all %d endpoints for chain %s: %w",
		op, len(f.clients), f.chain, errors.Join(errs...))
}

// GetNodeInfo returns node info from the first healthy endpoint
func (f *Failover) GetNodeInfo(ctx context.Context) (domain.NodeInfo, error) {
	var info domain.NodeInfo
	err := f.run(ctx, "GetNodeInfo", func(ctx context.Context, c Client) error {
		var err error
		info, err = c.GetNodeInfo(ctx)
		return err
	})
	return info, err
}

// GetBlock fetches a block from the first healthy endpoint
func (f *Failover) GetBlock(ctx context.Context, height uint64) (*domain.Block, error) {
	var block *domain.Block
	err := f.run(ctx, "GetBlock", func(ctx context.Context, c Client) error {
		var err error
		block, err = c.GetBlock(ctx, height)
		return err
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// GetLatestSignaturesForAddress fans the lookup over the endpoints that
// support signature addressing
func (f *Failover) GetLatestSignaturesForAddress(ctx context.Context, addr string, before string, limit int) ([]string, error) {
	var signatures []string
	supported := false

	err := f.run(ctx, "GetLatestSignaturesForAddress", func(ctx context.Context, c Client) error {
		sc, ok := c.(SignatureClient)
		if !ok {
			return backoff.Permanent(fmt.Errorf("endpoint does not support signature lookups"))
		}
		supported = true
		var err error
		signatures, err = sc.GetLatestSignaturesForAddress(ctx, addr, before, limit)
		return err
	})
	if err != nil && !supported {
		return nil, fmt.Errorf("chain %s has no signature-capable endpoints: %w", f.chain, err)
	}
	if err != nil {
		return nil, err
	}
	return signatures, nil
}
