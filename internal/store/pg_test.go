package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store/schema"
)

func testStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return NewPGStore(db)
}

func userVersion(id int64, block uint64, handle string) StagedVersion {
	return StagedVersion{
		Kind:     domain.EntityUser,
		EntityID: id,
		Record: &schema.User{
			VersionColumns: schema.VersionColumns{
				EntityID:    id,
				Chain:       domain.ChainRegistry,
				IsCurrent:   true,
				BlockNumber: block,
				BlockHash:   "0xhash",
				TxHash:      "0xtx",
			},
			Wallet: "0xaaa",
			Handle: handle,
		},
	}
}

func commit(t *testing.T, st Store, prev, height uint64, versions []StagedVersion, skipped []schema.SkippedTransaction) {
	t.Helper()
	require.NoError(t, st.CommitBlock(context.Background(), CommitBlockInput{
		Scope:        "registry",
		PrevPosition: prev,
		Height:       height,
		Versions:     versions,
		Skipped:      skipped,
	}))
}

func TestCommitBlockKeepsSingleCurrentVersion(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, []StagedVersion{userVersion(1, 5, "alice")}, nil)

	user, err := st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Handle)
	assert.EqualValues(t, 5, user.BlockNumber)

	// a later version supersedes, never duplicates, the current row
	commit(t, st, 5, 6, []StagedVersion{userVersion(1, 6, "alice-renamed")}, nil)

	user, err = st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", user.Handle)
	assert.EqualValues(t, 6, user.BlockNumber)

	cp, err := st.GetCheckpoint(ctx, "registry")
	require.NoError(t, err)
	assert.EqualValues(t, 6, cp)
}

func TestCommitBlockChecksPrevPosition(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, []StagedVersion{userVersion(1, 5, "alice")}, nil)

	// replaying the same block is rejected, not re-applied
	err := st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "registry",
		PrevPosition: 0,
		Height:       5,
		Versions:     []StagedVersion{userVersion(1, 5, "alice")},
	})
	assert.ErrorIs(t, err, domain.ErrCheckpointMismatch)

	// height at or below the stored position is rejected too
	err = st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "registry",
		PrevPosition: 5,
		Height:       5,
	})
	assert.ErrorIs(t, err, domain.ErrCheckpointMismatch)

	// and the rejected replay left no second current row behind
	user, err := st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Handle)
}

func TestCommitBlockRecordsSkipped(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, nil, []schema.SkippedTransaction{
		{Chain: domain.ChainRegistry, BlockNumber: 5, BlockHash: "0xhash", TxHash: "0xbad", Reason: "signer mismatch"},
	})

	skipped, err := st.ListSkippedTransactions(ctx, domain.ChainRegistry, 10)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "0xbad", skipped[0].TxHash)

	// empty blocks still advance the checkpoint
	cp, err := st.GetCheckpoint(ctx, "registry")
	require.NoError(t, err)
	assert.EqualValues(t, 5, cp)
}

func trackVersion(id int64, block uint64, owner int64, deleted bool) StagedVersion {
	return StagedVersion{
		Kind:     domain.EntityTrack,
		EntityID: id,
		Record: &schema.Track{
			VersionColumns: schema.VersionColumns{
				EntityID:    id,
				Chain:       domain.ChainRegistry,
				IsCurrent:   true,
				BlockNumber: block,
				BlockHash:   "0xhash",
				TxHash:      "0xtx",
			},
			OwnerID:  owner,
			Title:    "demo",
			IsDelete: deleted,
		},
	}
}

func TestCountUserTracks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, []StagedVersion{
		trackVersion(100, 5, 7, false),
		trackVersion(101, 5, 7, false),
		trackVersion(102, 5, 8, false),
	}, nil)

	count, err := st.CountUserTracks(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// deleting a track removes it from the count
	commit(t, st, 5, 6, []StagedVersion{trackVersion(101, 6, 7, true)}, nil)

	count, err = st.CountUserTracks(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = st.CountUserTracks(ctx, 9)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCommitBlockStagesRewardOutbox(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "registry",
		PrevPosition: 0,
		Height:       5,
		Outbox: []schema.RewardOutbox{
			{Chain: domain.ChainRegistry, BlockNumber: 5, Payload: []byte(`{"id":"e1"}`)},
			{Chain: domain.ChainRegistry, BlockNumber: 5, Payload: []byte(`{"id":"e2"}`)},
		},
	}))

	rows, err := st.ListRewardOutbox(ctx, domain.ChainRegistry, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"id":"e1"}`, string(rows[0].Payload))
	assert.JSONEq(t, `{"id":"e2"}`, string(rows[1].Payload))

	// other chains see nothing
	other, err := st.ListRewardOutbox(ctx, domain.ChainCore, 10)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, st.DeleteRewardOutbox(ctx, []uint64{rows[0].ID}))
	rows, err = st.ListRewardOutbox(ctx, domain.ChainRegistry, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"id":"e2"}`, string(rows[0].Payload))
}

func TestRollbackSinceDropsStaleOutbox(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "registry",
		PrevPosition: 0,
		Height:       5,
		Outbox: []schema.RewardOutbox{
			{Chain: domain.ChainRegistry, BlockNumber: 5, Payload: []byte(`{"id":"e1"}`)},
		},
	}))
	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "registry",
		PrevPosition: 5,
		Height:       6,
		Outbox: []schema.RewardOutbox{
			{Chain: domain.ChainRegistry, BlockNumber: 6, Payload: []byte(`{"id":"e2"}`)},
		},
	}))

	require.NoError(t, st.RollbackSince(ctx, domain.ChainRegistry, 6))

	// the rolled-back block's events never reach the bus
	rows, err := st.ListRewardOutbox(ctx, domain.ChainRegistry, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"id":"e1"}`, string(rows[0].Payload))
}

func TestRollbackSincePromotesSurvivors(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, []StagedVersion{userVersion(1, 5, "v5")}, nil)
	commit(t, st, 5, 6, []StagedVersion{userVersion(1, 6, "v6")}, nil)
	commit(t, st, 6, 7, []StagedVersion{userVersion(1, 7, "v7"), userVersion(2, 7, "bob")}, nil)

	require.NoError(t, st.RollbackSince(ctx, domain.ChainRegistry, 6))

	// user 1 falls back to its block 5 version
	user, err := st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v5", user.Handle)
	assert.EqualValues(t, 5, user.BlockNumber)

	// user 2 only ever existed in rolled-back blocks
	_, err = st.GetCurrentUser(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	cp, err := st.GetCheckpoint(ctx, "registry")
	require.NoError(t, err)
	assert.EqualValues(t, 5, cp)

	// ingestion resumes cleanly from the rolled-back position
	commit(t, st, 5, 6, []StagedVersion{userVersion(1, 6, "v6-again")}, nil)
	user, err = st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v6-again", user.Handle)
}

func TestRollbackSincePromotesAcrossChains(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	coreVersion := func(id int64, block uint64, handle string, current bool) StagedVersion {
		return StagedVersion{
			Kind:     domain.EntityUser,
			EntityID: id,
			Record: &schema.User{
				VersionColumns: schema.VersionColumns{
					EntityID:    id,
					Chain:       domain.ChainCore,
					IsCurrent:   current,
					BlockNumber: block,
					BlockHash:   "corehash",
					TxHash:      "coretx",
				},
				Wallet: "0xaaa",
				Handle: handle,
			},
		}
	}

	// user 10 is created on the core chain and later updated via the
	// registry chain, which supersedes the core version
	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope: "core", PrevPosition: 0, Height: 5,
		Versions: []StagedVersion{coreVersion(10, 5, "from-core", true)},
	}))
	commit(t, st, 0, 900, []StagedVersion{userVersion(10, 900, "from-registry")}, nil)

	require.NoError(t, st.RollbackSince(ctx, domain.ChainRegistry, 850))

	// the core version is current again even though the rolled chain holds
	// no surviving row for the entity
	user, err := st.GetCurrentUser(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "from-core", user.Handle)
	assert.EqualValues(t, 5, user.BlockNumber)
	assert.Equal(t, domain.ChainCore, user.Chain)
}

func TestRollbackSinceKeepsForeignCurrentVersion(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// user 20's superseded version lives on the core chain, its current
	// version on the registry chain
	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope: "core", PrevPosition: 0, Height: 5,
		Versions: []StagedVersion{{
			Kind:     domain.EntityUser,
			EntityID: 20,
			Record: &schema.User{
				VersionColumns: schema.VersionColumns{
					EntityID: 20, Chain: domain.ChainCore, IsCurrent: true,
					BlockNumber: 5, BlockHash: "corehash", TxHash: "coretx",
				},
				Wallet: "0xaaa",
				Handle: "old",
			},
		}},
	}))
	commit(t, st, 0, 900, []StagedVersion{userVersion(20, 900, "live")}, nil)

	// rolling back the chain holding only the superseded row must not
	// promote it next to the surviving current version
	require.NoError(t, st.RollbackSince(ctx, domain.ChainCore, 1))

	user, err := st.GetCurrentUser(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "live", user.Handle)
	assert.EqualValues(t, 900, user.BlockNumber)
}

func TestRollbackSinceLeavesOtherChains(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, []StagedVersion{userVersion(1, 5, "registry-user")}, nil)

	slot := uint64(9000)
	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope:        "payments",
		PrevPosition: 0,
		Height:       9000,
		Versions: []StagedVersion{{
			Kind:     domain.EntityTrack,
			EntityID: 7,
			Record: &schema.Track{
				VersionColumns: schema.VersionColumns{
					EntityID:    7,
					Chain:       domain.ChainPayments,
					IsCurrent:   true,
					BlockNumber: 9000,
					BlockHash:   "slothash",
					TxHash:      "sig",
					Slot:        &slot,
				},
				OwnerID: 1,
				Title:   "payments track",
			},
		}},
	}))

	require.NoError(t, st.RollbackSince(ctx, domain.ChainPayments, 1))

	// the registry chain is untouched
	user, err := st.GetCurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "registry-user", user.Handle)

	_, err = st.GetCurrentTrack(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestEntityExists(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	exists, err := st.EntityExists(ctx, domain.EntityUser, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	commit(t, st, 0, 5, []StagedVersion{userVersion(1, 5, "alice")}, nil)

	exists, err = st.EntityExists(ctx, domain.EntityUser, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = st.EntityExists(ctx, domain.EntityKind("bogus"), 1)
	assert.Error(t, err)
}

func TestGetActiveDelegations(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	grant := StagedVersion{
		Kind:     domain.EntityDelegate,
		EntityID: 50,
		Record: &schema.Delegate{
			VersionColumns: schema.VersionColumns{
				EntityID: 50, Chain: domain.ChainRegistry, IsCurrent: true, BlockNumber: 5,
				BlockHash: "0xhash", TxHash: "0xtx",
			},
			UserID:          1,
			DelegateAddress: "0xddd",
		},
	}
	commit(t, st, 0, 5, []StagedVersion{grant}, nil)

	grants, err := st.GetActiveDelegations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "0xddd", grants[0].DelegateAddress)

	// a revoked version replaces the grant
	revoked := StagedVersion{
		Kind:     domain.EntityDelegate,
		EntityID: 50,
		Record: &schema.Delegate{
			VersionColumns: schema.VersionColumns{
				EntityID: 50, Chain: domain.ChainRegistry, IsCurrent: true, BlockNumber: 6,
				BlockHash: "0xhash6", TxHash: "0xtx6",
			},
			UserID:          1,
			DelegateAddress: "0xddd",
			IsRevoked:       true,
		},
	}
	commit(t, st, 5, 6, []StagedVersion{revoked}, nil)

	grants, err = st.GetActiveDelegations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestChallengeRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertChallenges(ctx, []schema.Challenge{
		{ID: "track-upload", Type: "aggregate", Amount: 5, StepCount: 3, Active: true},
	}))

	challenge, err := st.GetChallenge(ctx, "track-upload")
	require.NoError(t, err)
	assert.EqualValues(t, 3, challenge.StepCount)

	// reconciling again updates in place
	require.NoError(t, st.UpsertChallenges(ctx, []schema.Challenge{
		{ID: "track-upload", Type: "aggregate", Amount: 10, StepCount: 3, Active: false},
	}))
	challenge, err = st.GetChallenge(ctx, "track-upload")
	require.NoError(t, err)
	assert.EqualValues(t, 10, challenge.Amount)
	assert.False(t, challenge.Active)

	_, err = st.GetChallenge(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}

func TestSaveUserChallenges(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	row := schema.UserChallenge{
		ChallengeID:      "track-upload",
		UserID:           7,
		Specifier:        "7",
		CurrentStepCount: 1,
	}
	require.NoError(t, st.SaveUserChallenges(ctx, []schema.UserChallenge{row}))

	loaded, err := st.GetUserChallenges(ctx, "track-upload", []int64{7})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.EqualValues(t, 1, loaded[0].CurrentStepCount)

	// saving the loaded row advances it in place
	loaded[0].CurrentStepCount = 2
	loaded[0].IsComplete = true
	require.NoError(t, st.SaveUserChallenges(ctx, loaded))

	byUser, err := st.GetUserChallengesByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.True(t, byUser[0].IsComplete)
	assert.EqualValues(t, 2, byUser[0].CurrentStepCount)

	// a fresh struct for the same instance upserts instead of duplicating
	require.NoError(t, st.SaveUserChallenges(ctx, []schema.UserChallenge{{
		ChallengeID:      "track-upload",
		UserID:           7,
		Specifier:        "7",
		CurrentStepCount: 3,
	}}))
	byUser, err = st.GetUserChallengesByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.EqualValues(t, 3, byUser[0].CurrentStepCount)
}

func TestListCheckpoints(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	commit(t, st, 0, 5, nil, nil)
	require.NoError(t, st.CommitBlock(ctx, CommitBlockInput{
		Scope: "payments", PrevPosition: 0, Height: 9000,
	}))

	checkpoints, err := st.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "payments", checkpoints[0].Scope)
	assert.EqualValues(t, 9000, checkpoints[0].Position)
	assert.Equal(t, "registry", checkpoints[1].Scope)
}
