package rewards

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

// Catalog ids of the built-in challenges
const (
	ChallengeTrackUpload       = "track-upload"
	ChallengeProfileCompletion = "profile-completion"
	ChallengeAudioMatch        = "audio-match"
	ChallengeFirstPlaylist     = "first-playlist"
)

func userSpecifier(userID int64) string {
	return strconv.FormatInt(userID, 16)
}

// extraInt64 reads a numeric field from an event's extra payload. Events
// round-trip through JSON on the queue, so numbers usually arrive as
// float64.
func extraInt64(event domain.ChallengeEvent, key string) (int64, bool) {
	raw, ok := event.Extra[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

// baseUpdater supplies the defaults most challenges share: every user is
// eligible, instances are keyed per user, and row creation needs no extra
// setup.
type baseUpdater struct{}

func (baseUpdater) ShouldCreateNewChallenge(context.Context, domain.ChallengeEvent) (bool, error) {
	return true, nil
}

func (baseUpdater) GenerateSpecifier(event domain.ChallengeEvent) string {
	return userSpecifier(event.UserID)
}

func (baseUpdater) OnAfterChallengeCreation(context.Context, *schema.UserChallenge, domain.ChallengeEvent) error {
	return nil
}

// TrackUploadUpdater advances one step per uploaded track, keyed per user.
// Progress is recomputed from the user's current track count instead of
// incremented per event, so a redelivered batch converges on the same value.
type TrackUploadUpdater struct {
	baseUpdater
	store store.Store
}

// NewTrackUploadUpdater creates the track upload strategy
func NewTrackUploadUpdater(st store.Store) *TrackUploadUpdater {
	return &TrackUploadUpdater{store: st}
}

func (u *TrackUploadUpdater) ChallengeID() string { return ChallengeTrackUpload }

func (u *TrackUploadUpdater) EventTypes() []domain.ChallengeEventType {
	return []domain.ChallengeEventType{domain.ChallengeEventTrackUpload}
}

func (u *TrackUploadUpdater) UpdateUserChallenges(ctx context.Context, _ *schema.Challenge, instances []*Instance) error {
	for _, inst := range instances {
		count, err := u.store.CountUserTracks(ctx, inst.Row.UserID)
		if err != nil {
			return err
		}
		// progress never regresses, even if tracks are deleted later
		if count > inst.Row.CurrentStepCount {
			inst.Row.CurrentStepCount = count
		}
	}
	return nil
}

// ProfileCompletionUpdater recomputes the step count from the user's
// current profile on every profile event, so replays and out-of-order
// events converge on the same value
type ProfileCompletionUpdater struct {
	baseUpdater
	store store.Store
}

// NewProfileCompletionUpdater creates the profile completion strategy
func NewProfileCompletionUpdater(st store.Store) *ProfileCompletionUpdater {
	return &ProfileCompletionUpdater{store: st}
}

func (u *ProfileCompletionUpdater) ChallengeID() string { return ChallengeProfileCompletion }

func (u *ProfileCompletionUpdater) EventTypes() []domain.ChallengeEventType {
	return []domain.ChallengeEventType{domain.ChallengeEventProfileUpdate}
}

func (u *ProfileCompletionUpdater) UpdateUserChallenges(ctx context.Context, _ *schema.Challenge, instances []*Instance) error {
	for _, inst := range instances {
		user, err := u.store.GetCurrentUser(ctx, inst.Row.UserID)
		if err != nil {
			return err
		}
		steps := int64(0)
		if user.Handle != "" {
			steps++
		}
		if user.Name != "" {
			steps++
		}
		if user.Bio != "" {
			steps++
		}
		if user.Verified {
			steps++
		}
		// progress never regresses, even if a profile field is cleared later
		if steps > inst.Row.CurrentStepCount {
			inst.Row.CurrentStepCount = steps
		}
	}
	return nil
}

// AudioMatchUpdater creates one single-step instance per (user, track)
// pair, so the same match replayed never pays twice
type AudioMatchUpdater struct {
	baseUpdater
}

func (u *AudioMatchUpdater) ChallengeID() string { return ChallengeAudioMatch }

func (u *AudioMatchUpdater) EventTypes() []domain.ChallengeEventType {
	return []domain.ChallengeEventType{domain.ChallengeEventAudioMatch}
}

func (u *AudioMatchUpdater) ShouldCreateNewChallenge(_ context.Context, event domain.ChallengeEvent) (bool, error) {
	_, ok := extraInt64(event, "track_id")
	return ok, nil
}

func (u *AudioMatchUpdater) GenerateSpecifier(event domain.ChallengeEvent) string {
	trackID, _ := extraInt64(event, "track_id")
	return userSpecifier(event.UserID) + "-" + strconv.FormatInt(trackID, 16)
}

func (u *AudioMatchUpdater) UpdateUserChallenges(_ context.Context, challenge *schema.Challenge, instances []*Instance) error {
	for _, inst := range instances {
		inst.Row.CurrentStepCount = challenge.StepCount
	}
	return nil
}

// FirstPlaylistUpdater is a one-shot challenge completed by the user's
// first playlist
type FirstPlaylistUpdater struct {
	baseUpdater
}

func (u *FirstPlaylistUpdater) ChallengeID() string { return ChallengeFirstPlaylist }

func (u *FirstPlaylistUpdater) EventTypes() []domain.ChallengeEventType {
	return []domain.ChallengeEventType{domain.ChallengeEventPlaylistCreate}
}

func (u *FirstPlaylistUpdater) UpdateUserChallenges(_ context.Context, challenge *schema.Challenge, instances []*Instance) error {
	for _, inst := range instances {
		inst.Row.CurrentStepCount = challenge.StepCount
	}
	return nil
}

// DefaultManagers wires every built-in challenge manager
func DefaultManagers(st store.Store) []*ChallengeManager {
	return []*ChallengeManager{
		NewChallengeManager(st, NewTrackUploadUpdater(st)),
		NewChallengeManager(st, NewProfileCompletionUpdater(st)),
		NewChallengeManager(st, &AudioMatchUpdater{}),
		NewChallengeManager(st, &FirstPlaylistUpdater{}),
	}
}
