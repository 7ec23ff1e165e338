package store

import (
	"context"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store/schema"
)

// StagedVersion is one not-yet-committed entity version produced by the
// mutation processor. Record is the concrete schema row (e.g. *schema.User)
// with IsCurrent already set; the store flips the prior current row and
// inserts it inside the block's commit transaction.
type StagedVersion struct {
	Kind     domain.EntityKind
	EntityID int64
	Record   any
}

// CommitBlockInput carries everything one block commit makes durable.
// PrevPosition is the checkpoint the caller read before processing; the
// commit is rejected with domain.ErrCheckpointMismatch when the stored
// checkpoint no longer matches, which makes replay of an already-committed
// block a guarded no-op.
type CommitBlockInput struct {
	Scope        string
	PrevPosition uint64
	Height       uint64
	Versions     []StagedVersion
	Skipped      []schema.SkippedTransaction
	Outbox       []schema.RewardOutbox
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetCurrentUser returns the single current version of a user.
	// domain.ErrEntityNotFound when no current row exists;
	// domain.ErrCurrentRowConflict when the version invariant is broken.
	GetCurrentUser(ctx context.Context, entityID int64) (*schema.User, error)
	// GetCurrentTrack returns the single current version of a track
	GetCurrentTrack(ctx context.Context, entityID int64) (*schema.Track, error)
	// GetCurrentPlaylist returns the single current version of a playlist
	GetCurrentPlaylist(ctx context.Context, entityID int64) (*schema.Playlist, error)
	// GetCurrentDelegate returns the single current version of a delegation grant
	GetCurrentDelegate(ctx context.Context, entityID int64) (*schema.Delegate, error)
	// GetCurrentNotification returns the single current version of a notification
	GetCurrentNotification(ctx context.Context, entityID int64) (*schema.Notification, error)
	// GetActiveDelegations returns the non-revoked current grants of a user
	GetActiveDelegations(ctx context.Context, userID int64) ([]schema.Delegate, error)
	// CountUserTracks counts a user's current, non-deleted tracks
	CountUserTracks(ctx context.Context, ownerID int64) (int64, error)
	// EntityExists reports whether any current version exists for the id
	EntityExists(ctx context.Context, kind domain.EntityKind, entityID int64) (bool, error)

	// GetCheckpoint retrieves the last fully-applied position for a scope,
	// defaulting to 0
	GetCheckpoint(ctx context.Context, scope string) (uint64, error)
	// ListCheckpoints returns every checkpoint row
	ListCheckpoints(ctx context.Context) ([]schema.Checkpoint, error)

	// CommitBlock atomically flushes staged versions, skipped-transaction
	// records and the checkpoint advance for one block
	CommitBlock(ctx context.Context, input CommitBlockInput) error
	// RollbackSince deletes all versioned rows and checkpoint advances of a
	// chain with block_number >= since and promotes the highest surviving
	// version of each touched entity back to is_current
	RollbackSince(ctx context.Context, chain domain.Chain, since uint64) error

	// ListRewardOutbox returns a chain's oldest undelivered reward events
	ListRewardOutbox(ctx context.Context, chain domain.Chain, limit int) ([]schema.RewardOutbox, error)
	// DeleteRewardOutbox removes delivered outbox rows by id
	DeleteRewardOutbox(ctx context.Context, ids []uint64) error

	// ListSkippedTransactions returns the most recent skipped transactions
	// for a chain
	ListSkippedTransactions(ctx context.Context, chain domain.Chain, limit int) ([]schema.SkippedTransaction, error)

	// UpsertChallenges reconciles the static challenge catalog
	UpsertChallenges(ctx context.Context, challenges []schema.Challenge) error
	// GetChallenge returns one challenge config by id
	GetChallenge(ctx context.Context, id string) (*schema.Challenge, error)
	// GetUserChallenges returns progress rows of a challenge for a user set
	GetUserChallenges(ctx context.Context, challengeID string, userIDs []int64) ([]schema.UserChallenge, error)
	// GetUserChallengesByUser returns all progress rows of one user
	GetUserChallengesByUser(ctx context.Context, userID int64) ([]schema.UserChallenge, error)
	// SaveUserChallenges persists created and updated progress rows in one
	// transaction
	SaveUserChallenges(ctx context.Context, rows []schema.UserChallenge) error
}
