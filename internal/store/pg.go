package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new store instance over a gorm connection
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates every table the indexer owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.User{},
		&schema.Track{},
		&schema.Playlist{},
		&schema.Delegate{},
		&schema.Notification{},
		&schema.Checkpoint{},
		&schema.SkippedTransaction{},
		&schema.Challenge{},
		&schema.UserChallenge{},
		&schema.RewardOutbox{},
	)
}

// ConfigureConnectionPool sets the underlying sql.DB pool limits
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return nil
}

// currentVersion fetches the single is_current row of a table. Finding more
// than one means the version invariant is already broken: that is surfaced
// as domain.ErrCurrentRowConflict, never silently repaired.
func currentVersion[T any](ctx context.Context, db *gorm.DB, entityID int64) (*T, error) {
	var rows []T
	err := db.WithContext(ctx).
		Where("entity_id = ? AND is_current = ?", entityID, true).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	switch len(rows) {
	case 0:
		return nil, domain.ErrEntityNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("entity %d: %w", entityID, domain.ErrCurrentRowConflict)
	}
}

func (s *pgStore) GetCurrentUser(ctx context.Context, entityID int64) (*schema.User, error) {
	return currentVersion[schema.User](ctx, s.db, entityID)
}

func (s *pgStore) GetCurrentTrack(ctx context.Context, entityID int64) (*schema.Track, error) {
	return currentVersion[schema.Track](ctx, s.db, entityID)
}

func (s *pgStore) GetCurrentPlaylist(ctx context.Context, entityID int64) (*schema.Playlist, error) {
	return currentVersion[schema.Playlist](ctx, s.db, entityID)
}

func (s *pgStore) GetCurrentDelegate(ctx context.Context, entityID int64) (*schema.Delegate, error) {
	return currentVersion[schema.Delegate](ctx, s.db, entityID)
}

func (s *pgStore) GetCurrentNotification(ctx context.Context, entityID int64) (*schema.Notification, error) {
	return currentVersion[schema.Notification](ctx, s.db, entityID)
}

// GetActiveDelegations returns the non-revoked current grants of a user
func (s *pgStore) GetActiveDelegations(ctx context.Context, userID int64) ([]schema.Delegate, error) {
	var grants []schema.Delegate
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_current = ? AND is_revoked = ?", userID, true, false).
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get delegations for user %d: %w", userID, err)
	}
	return grants, nil
}

// CountUserTracks counts a user's current, non-deleted tracks
func (s *pgStore) CountUserTracks(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Track{}).
		Where("owner_id = ? AND is_current = ? AND is_delete = ?", ownerID, true, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks of user %d: %w", ownerID, err)
	}
	return count, nil
}

// EntityExists reports whether any current version exists for the id
func (s *pgStore) EntityExists(ctx context.Context, kind domain.EntityKind, entityID int64) (bool, error) {
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(model).
		Where("entity_id = ? AND is_current = ?", entityID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existence of %s %d: %w", kind, entityID, err)
	}
	return count > 0, nil
}

// GetCheckpoint retrieves the last fully-applied position for a scope
func (s *pgStore) GetCheckpoint(ctx context.Context, scope string) (uint64, error) {
	var cp schema.Checkpoint
	err := s.db.WithContext(ctx).Where("scope = ?", scope).First(&cp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get checkpoint %s: %w", scope, err)
	}
	return cp.Position, nil
}

func (s *pgStore) ListCheckpoints(ctx context.Context) ([]schema.Checkpoint, error) {
	var checkpoints []schema.Checkpoint
	err := s.db.WithContext(ctx).Order("scope").Find(&checkpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return checkpoints, nil
}

// CommitBlock atomically flushes one block's staged versions, skipped
// records and checkpoint advance. All of them commit together: a crash
// before commit leaves all of them absent and the block is reprocessed
// identically on the next tick.
func (s *pgStore) CommitBlock(ctx context.Context, input CommitBlockInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp schema.Checkpoint
		position := uint64(0)
		err := tx.Where("scope = ?", input.Scope).First(&cp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to read checkpoint %s: %w", input.Scope, err)
		}
		if err == nil {
			position = cp.Position
		}

		if position != input.PrevPosition || position >= input.Height {
			return fmt.Errorf("scope %s at %d, committing %d after %d: %w",
				input.Scope, position, input.Height, input.PrevPosition, domain.ErrCheckpointMismatch)
		}

		for _, v := range input.Versions {
			model, err := modelFor(v.Kind)
			if err != nil {
				return err
			}
			// Flip the prior current row, then insert the new version
			err = tx.Model(model).
				Where("entity_id = ? AND is_current = ?", v.EntityID, true).
				Update("is_current", false).Error
			if err != nil {
				return fmt.Errorf("failed to supersede %s %d: %w", v.Kind, v.EntityID, err)
			}
			if err := tx.Create(v.Record).Error; err != nil {
				return fmt.Errorf("failed to insert %s %d version: %w", v.Kind, v.EntityID, err)
			}
		}

		if len(input.Skipped) > 0 {
			if err := tx.Create(&input.Skipped).Error; err != nil {
				return fmt.Errorf("failed to record skipped transactions: %w", err)
			}
		}

		if len(input.Outbox) > 0 {
			if err := tx.Create(&input.Outbox).Error; err != nil {
				return fmt.Errorf("failed to stage reward events: %w", err)
			}
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "updated_at"}),
		}).Create(&schema.Checkpoint{Scope: input.Scope, Position: input.Height}).Error
		if err != nil {
			return fmt.Errorf("failed to advance checkpoint %s: %w", input.Scope, err)
		}

		return nil
	})
}

// rollbackVersions removes one table's rows at or above since on the rolled
// chain and restores is_current on each touched entity. The entity id space
// is global, so the surviving versions of an entity may live on any chain:
// promotion skips entities that still have a current row and otherwise picks
// the highest surviving block_number across all chains.
func rollbackVersions[T any](tx *gorm.DB, chain domain.Chain, since uint64) error {
	var model T
	var ids []int64
	err := tx.Model(&model).
		Where("chain = ? AND block_number >= ?", chain, since).
		Distinct("entity_id").
		Pluck("entity_id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to collect rollback ids: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	err = tx.Where("chain = ? AND block_number >= ?", chain, since).Delete(&model).Error
	if err != nil {
		return fmt.Errorf("failed to delete rolled-back versions: %w", err)
	}

	for _, id := range ids {
		var currents int64
		err = tx.Session(&gorm.Session{NewDB: true}).
			Model(new(T)).
			Where("entity_id = ? AND is_current = ?", id, true).
			Count(&currents).Error
		if err != nil {
			return fmt.Errorf("failed to check current version of %d: %w", id, err)
		}
		if currents > 0 {
			continue
		}

		maxBlock := tx.Session(&gorm.Session{NewDB: true}).
			Model(new(T)).
			Select("MAX(block_number)").
			Where("entity_id = ?", id)

		err = tx.Model(&model).
			Where("entity_id = ? AND block_number = (?)", id, maxBlock).
			Update("is_current", true).Error
		if err != nil {
			return fmt.Errorf("failed to promote surviving version of %d: %w", id, err)
		}
	}
	return nil
}

// RollbackSince is the reorg-safety rollback: it bounds the blast radius of
// a minor fork without requiring fork detection
func (s *pgStore) RollbackSince(ctx context.Context, chain domain.Chain, since uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rollbackVersions[schema.User](tx, chain, since); err != nil {
			return err
		}
		if err := rollbackVersions[schema.Track](tx, chain, since); err != nil {
			return err
		}
		if err := rollbackVersions[schema.Playlist](tx, chain, since); err != nil {
			return err
		}
		if err := rollbackVersions[schema.Delegate](tx, chain, since); err != nil {
			return err
		}
		if err := rollbackVersions[schema.Notification](tx, chain, since); err != nil {
			return err
		}

		err := tx.Where("chain = ? AND block_number >= ?", chain, since).
			Delete(&schema.SkippedTransaction{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete rolled-back skipped records: %w", err)
		}

		// Events from rolled-back blocks describe state that no longer
		// exists; they must not reach the bus.
		err = tx.Where("chain = ? AND block_number >= ?", chain, since).
			Delete(&schema.RewardOutbox{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete rolled-back outbox rows: %w", err)
		}

		if since == 0 {
			return tx.Where("scope = ?", string(chain)).
				Delete(&schema.Checkpoint{}).Error
		}
		err = tx.Model(&schema.Checkpoint{}).
			Where("scope = ? AND position >= ?", string(chain), since).
			Update("position", since-1).Error
		if err != nil {
			return fmt.Errorf("failed to roll back checkpoint: %w", err)
		}
		return nil
	})
}

// ListRewardOutbox returns a chain's oldest undelivered reward events in
// insertion order
func (s *pgStore) ListRewardOutbox(ctx context.Context, chain domain.Chain, limit int) ([]schema.RewardOutbox, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []schema.RewardOutbox
	err := s.db.WithContext(ctx).
		Where("chain = ?", chain).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reward outbox: %w", err)
	}
	return rows, nil
}

// DeleteRewardOutbox removes delivered outbox rows by id
func (s *pgStore) DeleteRewardOutbox(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&schema.RewardOutbox{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete reward outbox rows: %w", err)
	}
	return nil
}

func (s *pgStore) ListSkippedTransactions(ctx context.Context, chain domain.Chain, limit int) ([]schema.SkippedTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var skipped []schema.SkippedTransaction
	err := s.db.WithContext(ctx).
		Where("chain = ?", chain).
		Order("block_number DESC, id DESC").
		Limit(limit).
		Find(&skipped).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list skipped transactions: %w", err)
	}
	return skipped, nil
}

// UpsertChallenges reconciles the static challenge catalog into the table
func (s *pgStore) UpsertChallenges(ctx context.Context, challenges []schema.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "amount", "step_count", "starting_block", "active", "cooldown_days", "updated_at",
		}),
	}).Create(&challenges).Error
	if err != nil {
		return fmt.Errorf("failed to upsert challenges: %w", err)
	}
	return nil
}

func (s *pgStore) GetChallenge(ctx context.Context, id string) (*schema.Challenge, error) {
	var challenge schema.Challenge
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, err)
	}
	return &challenge, nil
}

func (s *pgStore) GetUserChallenges(ctx context.Context, challengeID string, userIDs []int64) ([]schema.UserChallenge, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []schema.UserChallenge
	err := s.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id IN ?", challengeID, userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user challenges: %w", err)
	}
	return rows, nil
}

func (s *pgStore) GetUserChallengesByUser(ctx context.Context, userID int64) ([]schema.UserChallenge, error) {
	var rows []schema.UserChallenge
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("challenge_id, specifier").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get challenges for user %d: %w", userID, err)
	}
	return rows, nil
}

// SaveUserChallenges persists created and updated progress rows in one
// transaction, keyed by (challenge_id, user_id, specifier)
func (s *pgStore) SaveUserChallenges(ctx context.Context, rows []schema.UserChallenge) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := rows[i]
			if row.ID != 0 {
				if err := tx.Save(&row).Error; err != nil {
					return fmt.Errorf("failed to update user challenge %d: %w", row.ID, err)
				}
				continue
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "challenge_id"}, {Name: "user_id"}, {Name: "specifier"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"current_step_count", "is_complete", "amount", "completed_blocknumber", "updated_at",
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to save user challenge %s/%d: %w", row.ChallengeID, row.UserID, err)
			}
		}
		return nil
	})
}

func modelFor(kind domain.EntityKind) (any, error) {
	switch kind {
	case domain.EntityUser:
		return &schema.User{}, nil
	case domain.EntityTrack:
		return &schema.Track{}, nil
	case domain.EntityPlaylist:
		return &schema.Playlist{}, nil
	case domain.EntityDelegate:
		return &schema.Delegate{}, nil
	case domain.EntityNotification:
		return &schema.Notification{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}
