package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/chain"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/entity"
	"github.com/soundweave/indexer/internal/logger"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

// EventDispatcher hands reward-relevant events to the event bus after a
// block commits. Events are staged in the outbox table inside the block's
// commit transaction and only deleted once Dispatch succeeds, so a crash or
// bus outage between commit and dispatch delays delivery instead of losing
// it. Delivery is at least once and consumers are idempotent.
//
//go:generate mockgen -source=loop.go -destination=../mocks/ingest.go -package=mocks -mock_names=EventDispatcher=MockEventDispatcher,BlockPublisher=MockBlockPublisher
type EventDispatcher interface {
	Dispatch(ctx context.Context, chain domain.Chain, events []domain.ChallengeEvent) error
}

// outboxBatchSize bounds how many pending events one flush pass loads
const outboxBatchSize = 500

// BlockPublisher announces committed blocks to downstream consumers
type BlockPublisher interface {
	PublishBlock(ctx context.Context, notification domain.BlockNotification) error
}

// WorkerParams wires one chain's ingestion worker
type WorkerParams struct {
	Chain       domain.Chain
	Client      chain.Client
	Store       store.Store
	Lock        *Lock
	Dispatcher  EventDispatcher
	Publisher   BlockPublisher
	Clock       adapter.Clock
	Tick        time.Duration
	StartBlock  uint64
	ReorgMargin uint64
}

// Worker advances one chain's checkpoint block by block. Exactly one worker
// per chain holds the lease lock at a time; replicas that lose the race
// idle until the next tick.
type Worker struct {
	chain       domain.Chain
	client      chain.Client
	store       store.Store
	manager     *entity.Manager
	lock        *Lock
	dispatcher  EventDispatcher
	publisher   BlockPublisher
	clock       adapter.Clock
	tick        time.Duration
	startBlock  uint64
	reorgMargin uint64
}

// NewWorker creates the ingestion worker for one chain
func NewWorker(params WorkerParams) *Worker {
	return &Worker{
		chain:       params.Chain,
		client:      params.Client,
		store:       params.Store,
		manager:     entity.NewManager(params.Store),
		lock:        params.Lock,
		dispatcher:  params.Dispatcher,
		publisher:   params.Publisher,
		clock:       params.Clock,
		tick:        params.Tick,
		startBlock:  params.StartBlock,
		reorgMargin: params.ReorgMargin,
	}
}

// CheckpointScope returns the checkpoint row key of a chain's worker
func CheckpointScope(c domain.Chain) string {
	return string(c)
}

// Recover rolls the chain back by the reorg safety margin so that any block
// orphaned while the worker was down is re-indexed from the canonical
// chain. It runs once at startup, before the first tick.
func (w *Worker) Recover(ctx context.Context) error {
	checkpoint, err := w.store.GetCheckpoint(ctx, CheckpointScope(w.chain))
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	if checkpoint == 0 {
		return nil
	}
	since := uint64(1)
	if checkpoint > w.reorgMargin {
		since = checkpoint - w.reorgMargin + 1
	}
	logger.Info("rolling back for reorg safety",
		zap.String("chain", string(w.chain)),
		zap.Uint64("checkpoint", checkpoint),
		zap.Uint64("since", since))
	if err := w.store.RollbackSince(ctx, w.chain, since); err != nil {
		return fmt.Errorf("rollback since %d: %w", since, err)
	}
	return nil
}

// Run recovers once and then ticks until the context is canceled
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Recover(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(w.tick):
		}
		if err := w.Tick(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("chain", string(w.chain)))
		}
	}
}

// Tick runs one iteration of the ingestion loop: acquire the lease, fetch
// the block after the checkpoint, process and commit it. A tick that finds
// the lock held, the block unproduced or the checkpoint already advanced is
// a quiet no-op.
func (w *Worker) Tick(ctx context.Context) error {
	if err := w.lock.Acquire(ctx); err != nil {
		if errors.Is(err, domain.ErrLockDenied) {
			logger.DebugCtx(ctx, "chain lock held elsewhere", zap.String("chain", string(w.chain)))
			return nil
		}
		return err
	}
	defer func() {
		if err := w.lock.Release(ctx); err != nil {
			logger.WarnCtx(ctx, "lock release failed",
				zap.String("chain", string(w.chain)), zap.Error(err))
		}
	}()

	// Events a previous tick committed but never delivered go out first
	w.flushOutbox(ctx)

	checkpoint, err := w.store.GetCheckpoint(ctx, CheckpointScope(w.chain))
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	next := checkpoint + 1
	if checkpoint == 0 && w.startBlock > 1 {
		next = w.startBlock
	}

	block, err := w.client.GetBlock(ctx, next)
	if err != nil {
		if errors.Is(err, domain.ErrBlockNotFound) {
			logger.DebugCtx(ctx, "block not produced yet",
				zap.String("chain", string(w.chain)), zap.Uint64("height", next))
			return nil
		}
		return fmt.Errorf("fetch block %d: %w", next, err)
	}

	staging, events, skipped, err := w.processBlock(ctx, block)
	if err != nil {
		return fmt.Errorf("process block %d: %w", block.Height, err)
	}

	outbox, err := w.outboxRows(block, events)
	if err != nil {
		return fmt.Errorf("encode reward events for block %d: %w", block.Height, err)
	}

	versions := staging.Versions()
	err = w.store.CommitBlock(ctx, store.CommitBlockInput{
		Scope:        CheckpointScope(w.chain),
		PrevPosition: checkpoint,
		Height:       block.Height,
		Versions:     versions,
		Skipped:      skipped,
		Outbox:       outbox,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointMismatch) {
			logger.WarnCtx(ctx, "checkpoint advanced by another writer, discarding block",
				zap.String("chain", string(w.chain)), zap.Uint64("height", block.Height))
			return nil
		}
		return fmt.Errorf("commit block %d: %w", block.Height, err)
	}

	logger.InfoCtx(ctx, "block committed",
		zap.String("chain", string(w.chain)),
		zap.Uint64("height", block.Height),
		zap.Int("versions", len(versions)),
		zap.Int("skipped", len(skipped)),
		zap.Int("events", len(events)))

	w.afterCommit(ctx, block, versions)
	return nil
}

// outboxRows encodes a block's reward events for the commit transaction
func (w *Worker) outboxRows(block *domain.Block, events []domain.ChallengeEvent) ([]schema.RewardOutbox, error) {
	if w.dispatcher == nil || len(events) == 0 {
		return nil, nil
	}
	rows := make([]schema.RewardOutbox, 0, len(events))
	for i := range events {
		payload, err := json.Marshal(&events[i])
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", events[i].ID, err)
		}
		rows = append(rows, schema.RewardOutbox{
			Chain:       w.chain,
			BlockNumber: block.Height,
			Payload:     datatypes.JSON(payload),
		})
	}
	return rows, nil
}

// flushOutbox delivers pending outbox rows to the event bus and deletes
// whatever the bus accepted. Rows stay put when dispatch fails and are
// retried on the next tick.
func (w *Worker) flushOutbox(ctx context.Context) {
	if w.dispatcher == nil {
		return
	}
	for {
		rows, err := w.store.ListRewardOutbox(ctx, w.chain, outboxBatchSize)
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("list reward outbox: %w", err),
				zap.String("chain", string(w.chain)))
			return
		}
		if len(rows) == 0 {
			return
		}

		events := make([]domain.ChallengeEvent, 0, len(rows))
		ids := make([]uint64, 0, len(rows))
		for _, row := range rows {
			var event domain.ChallengeEvent
			if err := json.Unmarshal(row.Payload, &event); err != nil {
				logger.WarnCtx(ctx, "dropping malformed outbox row",
					zap.String("chain", string(w.chain)),
					zap.Uint64("id", row.ID), zap.Error(err))
				ids = append(ids, row.ID)
				continue
			}
			events = append(events, event)
			ids = append(ids, row.ID)
		}

		if len(events) > 0 {
			if err := w.dispatcher.Dispatch(ctx, w.chain, events); err != nil {
				logger.ErrorCtx(ctx, fmt.Errorf("dispatch reward events: %w", err),
					zap.String("chain", string(w.chain)), zap.Int("events", len(events)))
				return
			}
		}
		if err := w.store.DeleteRewardOutbox(ctx, ids); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("ack reward outbox: %w", err),
				zap.String("chain", string(w.chain)))
			return
		}
		if len(rows) < outboxBatchSize {
			return
		}
	}
}

// processBlock runs every transaction of a block through the mutation
// processor in deterministic (tx index, log index) order. Validation
// failures skip the transaction; any other error aborts the block.
func (w *Worker) processBlock(ctx context.Context, block *domain.Block) (*entity.StagingContext, []domain.ChallengeEvent, []schema.SkippedTransaction, error) {
	txs := make([]domain.Transaction, len(block.Transactions))
	copy(txs, block.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].TxIndex != txs[j].TxIndex {
			return txs[i].TxIndex < txs[j].TxIndex
		}
		return txs[i].LogIndex < txs[j].LogIndex
	})

	staging := entity.NewStagingContext()
	var events []domain.ChallengeEvent
	var skipped []schema.SkippedTransaction

	for i := range txs {
		tx := &txs[i]
		switch tx.Kind {
		case domain.TxKindEntity:
			txEvents, err := w.manager.ProcessTransaction(ctx, staging, block, tx)
			if err != nil {
				if domain.IsValidation(err) {
					logger.DebugCtx(ctx, "transaction skipped",
						zap.String("chain", string(w.chain)),
						zap.String("tx", tx.Hash), zap.Error(err))
					skipped = append(skipped, w.skippedRecord(block, tx, err))
					continue
				}
				return nil, nil, nil, err
			}
			events = append(events, txEvents...)

		case domain.TxKindPlay:
			events = append(events, w.playEvents(block, tx)...)

		case domain.TxKindValidator, domain.TxKindSLARollup:
			// consensus bookkeeping, nothing to index

		default:
			skipped = append(skipped, w.skippedRecord(block, tx, errors.New("unrecognized transaction kind")))
		}
	}
	return staging, events, skipped, nil
}

// playEvents turns one play transaction into its reward events. Plays are
// not versioned entities, so they produce no staged rows.
func (w *Worker) playEvents(block *domain.Block, tx *domain.Transaction) []domain.ChallengeEvent {
	play := tx.Play
	if play == nil || play.UserID <= 0 || play.TrackID <= 0 {
		return nil
	}
	extra := map[string]any{"track_id": play.TrackID}
	return []domain.ChallengeEvent{
		{
			ID:          eventID(),
			Type:        domain.ChallengeEventTrackPlay,
			UserID:      play.UserID,
			BlockNumber: block.Height,
			Extra:       extra,
		},
		{
			ID:          eventID(),
			Type:        domain.ChallengeEventAudioMatch,
			UserID:      play.UserID,
			BlockNumber: block.Height,
			Extra:       extra,
		},
	}
}

func eventID() string {
	return ulid.Make().String()
}

func (w *Worker) skippedRecord(block *domain.Block, tx *domain.Transaction, cause error) schema.SkippedTransaction {
	return schema.SkippedTransaction{
		Chain:       w.chain,
		BlockNumber: block.Height,
		BlockHash:   block.Hash,
		TxHash:      tx.Hash,
		Reason:      cause.Error(),
		Raw:         datatypes.JSON(tx.Raw),
	}
}

// afterCommit runs the post-commit side effects. The block is already
// durable; outbox delivery retries on later ticks and a publish failure
// only costs a notification.
func (w *Worker) afterCommit(ctx context.Context, block *domain.Block, versions []store.StagedVersion) {
	w.flushOutbox(ctx)
	if w.publisher != nil {
		counts := make(map[string]int)
		for _, v := range versions {
			counts[string(v.Kind)]++
		}
		notification := domain.BlockNotification{
			Chain:        w.chain,
			Height:       block.Height,
			BlockHash:    block.Hash,
			EntityCounts: counts,
			CommittedAt:  w.clock.Now(),
		}
		if err := w.publisher.PublishBlock(ctx, notification); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("publish block notification: %w", err),
				zap.String("chain", string(w.chain)), zap.Uint64("height", block.Height))
		}
	}
}
