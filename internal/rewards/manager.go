package rewards

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

// Instance is one challenge progress row together with the events of the
// current batch that target it.
type Instance struct {
	Row    *schema.UserChallenge
	Events []domain.ChallengeEvent
}

// Updater is the challenge-specific strategy a ChallengeManager wraps.
// GenerateSpecifier partitions one challenge into instances per user (or
// per user/resource pair); UpdateUserChallenges advances the step counts
// of a batch of instances and must be idempotent under event replay.
type Updater interface {
	// ChallengeID names the catalog row this updater serves
	ChallengeID() string

	// EventTypes lists the bus event types this updater consumes
	EventTypes() []domain.ChallengeEventType

	// ShouldCreateNewChallenge gates creation of a progress row for an
	// event that has no existing instance
	ShouldCreateNewChallenge(ctx context.Context, event domain.ChallengeEvent) (bool, error)

	// GenerateSpecifier derives the instance key of an event
	GenerateSpecifier(event domain.ChallengeEvent) string

	// UpdateUserChallenges advances the step counts of the combined set
	// of new and in-progress instances
	UpdateUserChallenges(ctx context.Context, challenge *schema.Challenge, instances []*Instance) error

	// OnAfterChallengeCreation runs once on each freshly created row
	// before it is advanced
	OnAfterChallengeCreation(ctx context.Context, row *schema.UserChallenge, event domain.ChallengeEvent) error
}

// ChallengeManager drives one challenge: it partitions a batch of events
// into instances, lets the updater advance them and marks completion.
// Challenge config is fetched fresh per batch, so catalog changes apply
// without a restart.
type ChallengeManager struct {
	store   store.Store
	updater Updater
}

// NewChallengeManager wraps an updater with the shared batching and
// completion logic
func NewChallengeManager(st store.Store, updater Updater) *ChallengeManager {
	return &ChallengeManager{store: st, updater: updater}
}

// EventTypes exposes the wrapped updater's subscriptions
func (m *ChallengeManager) EventTypes() []domain.ChallengeEventType {
	return m.updater.EventTypes()
}

// HandleEvents processes one batch of reward events. Completed instances
// are never advanced again, which makes replayed events a no-op.
func (m *ChallengeManager) HandleEvents(ctx context.Context, events []domain.ChallengeEvent) error {
	if len(events) == 0 {
		return nil
	}
	challenge, err := m.store.GetChallenge(ctx, m.updater.ChallengeID())
	if err != nil {
		return fmt.Errorf("load challenge %s: %w", m.updater.ChallengeID(), err)
	}
	if !challenge.Active {
		logger.DebugCtx(ctx, "challenge inactive, dropping events",
			zap.String("challenge", challenge.ID), zap.Int("events", len(events)))
		return nil
	}

	eligible := make([]domain.ChallengeEvent, 0, len(events))
	userIDs := make([]int64, 0, len(events))
	for _, event := range events {
		if event.BlockNumber < challenge.StartingBlock {
			continue
		}
		eligible = append(eligible, event)
		userIDs = append(userIDs, event.UserID)
	}
	if len(eligible) == 0 {
		return nil
	}

	existing, err := m.store.GetUserChallenges(ctx, challenge.ID, userIDs)
	if err != nil {
		return fmt.Errorf("load user challenges %s: %w", challenge.ID, err)
	}
	rows := make(map[string]*schema.UserChallenge, len(existing))
	for i := range existing {
		row := existing[i]
		rows[instanceKey(row.UserID, row.Specifier)] = &row
	}

	// Partition the batch into instances, creating rows where the updater
	// allows it. Completed instances drop out here and stay frozen.
	instances := make(map[string]*Instance)
	order := make([]string, 0, len(eligible))
	for _, event := range eligible {
		specifier := m.updater.GenerateSpecifier(event)
		key := instanceKey(event.UserID, specifier)
		inst, ok := instances[key]
		if !ok {
			row, exists := rows[key]
			if !exists {
				create, err := m.updater.ShouldCreateNewChallenge(ctx, event)
				if err != nil {
					return fmt.Errorf("eligibility %s event %s: %w", event.Type, event.ID, err)
				}
				if !create {
					continue
				}
				row = &schema.UserChallenge{
					ChallengeID: challenge.ID,
					UserID:      event.UserID,
					Specifier:   specifier,
				}
				if err := m.updater.OnAfterChallengeCreation(ctx, row, event); err != nil {
					return fmt.Errorf("post-creation %s event %s: %w", event.Type, event.ID, err)
				}
			}
			inst = &Instance{Row: row}
			instances[key] = inst
			order = append(order, key)
		}
		if inst.Row.IsComplete {
			continue
		}
		inst.Events = append(inst.Events, event)
	}

	work := make([]*Instance, 0, len(order))
	for _, key := range order {
		if inst := instances[key]; len(inst.Events) > 0 {
			work = append(work, inst)
		}
	}
	if len(work) == 0 {
		return nil
	}

	if err := m.updater.UpdateUserChallenges(ctx, challenge, work); err != nil {
		return fmt.Errorf("update %s: %w", challenge.ID, err)
	}

	save := make([]schema.UserChallenge, 0, len(work))
	for _, inst := range work {
		row := inst.Row
		if !row.IsComplete && row.CurrentStepCount >= challenge.StepCount {
			row.CurrentStepCount = challenge.StepCount
			row.IsComplete = true
			row.Amount = challenge.Amount
			blockNumber := lastBlock(inst.Events)
			row.CompletedBlocknumber = &blockNumber
			logger.InfoCtx(ctx, "challenge completed",
				zap.String("challenge", challenge.ID),
				zap.Int64("user_id", row.UserID),
				zap.String("specifier", row.Specifier))
		}
		save = append(save, *row)
	}
	return m.store.SaveUserChallenges(ctx, save)
}

func instanceKey(userID int64, specifier string) string {
	return fmt.Sprintf("%d|%s", userID, specifier)
}

func lastBlock(events []domain.ChallengeEvent) uint64 {
	var max uint64
	for _, event := range events {
		if event.BlockNumber > max {
			max = event.BlockNumber
		}
	}
	return max
}
