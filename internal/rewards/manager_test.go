package rewards

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/mocks"
	"github.com/soundweave/indexer/internal/store/schema"
)

func trackUploadChallenge(steps int64) *schema.Challenge {
	return &schema.Challenge{
		ID:        ChallengeTrackUpload,
		Type:      "aggregate",
		Amount:    5,
		StepCount: steps,
		Active:    true,
	}
}

func uploadEvent(id string, userID int64, block uint64) domain.ChallengeEvent {
	return domain.ChallengeEvent{
		ID:          id,
		Type:        domain.ChallengeEventTrackUpload,
		UserID:      userID,
		BlockNumber: block,
	}
}

func TestChallengeManagerCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeTrackUpload).Return(trackUploadChallenge(2), nil)
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeTrackUpload, []int64{7, 7}).Return(nil, nil)
	st.EXPECT().CountUserTracks(gomock.Any(), int64(7)).Return(int64(2), nil)
	st.EXPECT().SaveUserChallenges(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []schema.UserChallenge) error {
			require.Len(t, rows, 1)
			row := rows[0]
			assert.EqualValues(t, 7, row.UserID)
			assert.EqualValues(t, 2, row.CurrentStepCount)
			assert.True(t, row.IsComplete)
			assert.EqualValues(t, 5, row.Amount)
			require.NotNil(t, row.CompletedBlocknumber)
			assert.EqualValues(t, 11, *row.CompletedBlocknumber)
			return nil
		})

	manager := NewChallengeManager(st, NewTrackUploadUpdater(st))
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{
		uploadEvent("e1", 7, 10),
		uploadEvent("e2", 7, 11),
	})
	require.NoError(t, err)
}

func TestChallengeManagerCompletedRowsStayPut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	completedAt := uint64(9)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeTrackUpload).Return(trackUploadChallenge(2), nil)
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeTrackUpload, []int64{7}).Return([]schema.UserChallenge{
		{
			ChallengeID:          ChallengeTrackUpload,
			UserID:               7,
			Specifier:            userSpecifier(7),
			CurrentStepCount:     2,
			IsComplete:           true,
			Amount:               5,
			CompletedBlocknumber: &completedAt,
		},
	}, nil)
	// no save: the replayed event changes nothing

	manager := NewChallengeManager(st, NewTrackUploadUpdater(st))
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{uploadEvent("e1", 7, 10)})
	require.NoError(t, err)
}

func TestChallengeManagerInactiveChallenge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	challenge := trackUploadChallenge(2)
	challenge.Active = false

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeTrackUpload).Return(challenge, nil)

	manager := NewChallengeManager(st, NewTrackUploadUpdater(st))
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{uploadEvent("e1", 7, 10)})
	require.NoError(t, err)
}

func TestChallengeManagerStartingBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	challenge := trackUploadChallenge(2)
	challenge.StartingBlock = 100

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeTrackUpload).Return(challenge, nil)

	manager := NewChallengeManager(st, NewTrackUploadUpdater(st))
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{uploadEvent("e1", 7, 99)})
	require.NoError(t, err)
}

func TestTrackUploadRedeliveryConverges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeTrackUpload).Return(trackUploadChallenge(5), nil).Times(2)
	// one track exists regardless of how often the upload event is delivered
	st.EXPECT().CountUserTracks(gomock.Any(), int64(7)).Return(int64(1), nil).Times(2)

	var saved *schema.UserChallenge
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeTrackUpload, []int64{7}).DoAndReturn(
		func(context.Context, string, []int64) ([]schema.UserChallenge, error) {
			if saved == nil {
				return nil, nil
			}
			return []schema.UserChallenge{*saved}, nil
		}).Times(2)
	st.EXPECT().SaveUserChallenges(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []schema.UserChallenge) error {
			require.Len(t, rows, 1)
			assert.EqualValues(t, 1, rows[0].CurrentStepCount)
			saved = &rows[0]
			return nil
		}).Times(2)

	manager := NewChallengeManager(st, NewTrackUploadUpdater(st))
	batch := []domain.ChallengeEvent{uploadEvent("e1", 7, 10)}
	require.NoError(t, manager.HandleEvents(context.Background(), batch))
	// the bus delivers at least once; the same batch must not double count
	require.NoError(t, manager.HandleEvents(context.Background(), batch))
	assert.EqualValues(t, 1, saved.CurrentStepCount)
}

func TestProfileCompletionRecomputesSteps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeProfileCompletion).Return(&schema.Challenge{
		ID:        ChallengeProfileCompletion,
		Amount:    1,
		StepCount: 4,
		Active:    true,
	}, nil)
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeProfileCompletion, []int64{7}).Return(nil, nil)
	st.EXPECT().GetCurrentUser(gomock.Any(), int64(7)).Return(&schema.User{
		Handle: "alice",
		Name:   "Alice",
	}, nil)
	st.EXPECT().SaveUserChallenges(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []schema.UserChallenge) error {
			require.Len(t, rows, 1)
			assert.EqualValues(t, 2, rows[0].CurrentStepCount)
			assert.False(t, rows[0].IsComplete)
			return nil
		})

	manager := NewChallengeManager(st, NewProfileCompletionUpdater(st))
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{
		{ID: "e1", Type: domain.ChallengeEventProfileUpdate, UserID: 7, BlockNumber: 10},
	})
	require.NoError(t, err)
}

func TestAudioMatchSpecifierPerTrack(t *testing.T) {
	updater := &AudioMatchUpdater{}

	// extras arrive as float64 after the JSON round trip
	a := domain.ChallengeEvent{UserID: 7, Extra: map[string]any{"track_id": float64(100)}}
	b := domain.ChallengeEvent{UserID: 7, Extra: map[string]any{"track_id": float64(101)}}

	assert.Equal(t, "7-64", updater.GenerateSpecifier(a))
	assert.NotEqual(t, updater.GenerateSpecifier(a), updater.GenerateSpecifier(b))
}

func TestAudioMatchRequiresTrackID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeAudioMatch).Return(&schema.Challenge{
		ID:        ChallengeAudioMatch,
		Amount:    2,
		StepCount: 1,
		Active:    true,
	}, nil)
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeAudioMatch, []int64{7}).Return(nil, nil)
	// no save: an event without a track id never creates an instance

	manager := NewChallengeManager(st, &AudioMatchUpdater{})
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{
		{ID: "e1", Type: domain.ChallengeEventAudioMatch, UserID: 7, BlockNumber: 10},
	})
	require.NoError(t, err)
}

func TestAudioMatchCompletesInOneStep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockStore(ctrl)
	st.EXPECT().GetChallenge(gomock.Any(), ChallengeAudioMatch).Return(&schema.Challenge{
		ID:        ChallengeAudioMatch,
		Amount:    2,
		StepCount: 1,
		Active:    true,
	}, nil)
	st.EXPECT().GetUserChallenges(gomock.Any(), ChallengeAudioMatch, []int64{7, 7}).Return(nil, nil)
	st.EXPECT().SaveUserChallenges(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rows []schema.UserChallenge) error {
			// the duplicate match collapses into one completed instance
			require.Len(t, rows, 1)
			assert.True(t, rows[0].IsComplete)
			return nil
		})

	manager := NewChallengeManager(st, &AudioMatchUpdater{})
	match := domain.ChallengeEvent{
		ID: "e1", Type: domain.ChallengeEventAudioMatch, UserID: 7, BlockNumber: 10,
		Extra: map[string]any{"track_id": float64(100)},
	}
	duplicate := match
	duplicate.ID = "e2"
	err := manager.HandleEvents(context.Background(), []domain.ChallengeEvent{match, duplicate})
	require.NoError(t, err)
}
