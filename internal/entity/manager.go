package entity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

// Manager validates and stages entity mutations. It is stateless between
// blocks; all per-block state lives in the StagingContext so that a failed
// block leaves no residue.
type Manager struct {
	store store.Store
}

// NewManager creates a mutation processor backed by the given store
func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// ProcessTransaction applies one entity mutation to the staging context and
// returns the reward-relevant events it produced. A *domain.ValidationError
// rejects only this transaction; the caller records it as skipped and
// continues with the rest of the block. Any other error aborts the block.
func (m *Manager) ProcessTransaction(ctx context.Context, staging *StagingContext, block *domain.Block, tx *domain.Transaction) ([]domain.ChallengeEvent, error) {
	mut := tx.Entity
	if mut == nil {
		return nil, domain.NewValidationError("", "", "entity transaction without mutation payload", nil)
	}
	if mut.EntityID <= 0 || mut.EntityID > MaxEntityID {
		return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("entity id %d out of range", mut.EntityID), nil)
	}
	if mut.Signer == "" {
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "missing signer", nil)
	}

	version := m.versionColumns(block, tx, mut.EntityID)

	switch mut.Kind {
	case domain.EntityUser:
		return m.processUser(ctx, staging, block, mut, version)
	case domain.EntityTrack:
		return m.processTrack(ctx, staging, block, mut, version)
	case domain.EntityPlaylist:
		return m.processPlaylist(ctx, staging, block, mut, version)
	case domain.EntityDelegate:
		return m.processDelegate(ctx, staging, mut, version)
	case domain.EntityNotification:
		return m.processNotification(ctx, staging, block, mut, version)
	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unknown entity kind", nil)
	}
}

func (m *Manager) versionColumns(block *domain.Block, tx *domain.Transaction, entityID int64) schema.VersionColumns {
	v := schema.VersionColumns{
		EntityID:    entityID,
		Chain:       block.Chain,
		IsCurrent:   true,
		BlockNumber: block.Height,
		BlockHash:   block.Hash,
		TxHash:      tx.Hash,
	}
	if block.Chain == domain.ChainPayments {
		slot := block.Height
		v.Slot = &slot
	}
	return v
}

func (m *Manager) processUser(ctx context.Context, staging *StagingContext, block *domain.Block, mut *domain.EntityMutation, version schema.VersionColumns) ([]domain.ChallengeEvent, error) {
	switch mut.Action {
	case domain.ActionCreate:
		var payload domain.UserPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if payload.Wallet == "" || payload.Handle == "" {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "wallet and handle are required", nil)
		}
		if !sameAddress(mut.Signer, payload.Wallet) {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "signer must match the new user's wallet", nil)
		}
		if err := m.requireFree(ctx, staging, mut); err != nil {
			return nil, err
		}
		staging.Add(store.StagedVersion{
			Kind:     domain.EntityUser,
			EntityID: mut.EntityID,
			Record: &schema.User{
				VersionColumns: version,
				Wallet:         payload.Wallet,
				Handle:         payload.Handle,
				Name:           payload.Name,
				Bio:            payload.Bio,
			},
		})
		return []domain.ChallengeEvent{m.newEvent(domain.ChallengeEventProfileUpdate, mut.EntityID, block, nil)}, nil

	case domain.ActionUpdate:
		current, err := m.currentUser(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		var payload domain.UserPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if err := m.authorizeUserSigner(ctx, staging, current, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		if payload.Name != "" {
			next.Name = payload.Name
		}
		if payload.Bio != "" {
			next.Bio = payload.Bio
		}
		if payload.Verified {
			next.Verified = true
		}
		staging.Add(store.StagedVersion{Kind: domain.EntityUser, EntityID: mut.EntityID, Record: &next})
		return []domain.ChallengeEvent{m.newEvent(domain.ChallengeEventProfileUpdate, mut.EntityID, block, nil)}, nil

	case domain.ActionDelete:
		current, err := m.currentUser(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		if err := m.authorizeUserSigner(ctx, staging, current, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		next.IsDelete = true
		staging.Add(store.StagedVersion{Kind: domain.EntityUser, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unsupported action for users", nil)
	}
}

func (m *Manager) processTrack(ctx context.Context, staging *StagingContext, block *domain.Block, mut *domain.EntityMutation, version schema.VersionColumns) ([]domain.ChallengeEvent, error) {
	switch mut.Action {
	case domain.ActionCreate:
		var payload domain.TrackPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if payload.Title == "" {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "title is required", nil)
		}
		owner, err := m.currentUser(ctx, staging, payload.OwnerID)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("owner user %d", payload.OwnerID), err)
		}
		if err := m.authorizeUserSigner(ctx, staging, owner, mut); err != nil {
			return nil, err
		}
		if err := m.requireFree(ctx, staging, mut); err != nil {
			return nil, err
		}
		staging.Add(store.StagedVersion{
			Kind:     domain.EntityTrack,
			EntityID: mut.EntityID,
			Record: &schema.Track{
				VersionColumns: version,
				OwnerID:        payload.OwnerID,
				Title:          payload.Title,
				Duration:       payload.Duration,
				Genre:          payload.Genre,
			},
		})
		event := m.newEvent(domain.ChallengeEventTrackUpload, payload.OwnerID, block, map[string]any{"track_id": mut.EntityID})
		return []domain.ChallengeEvent{event}, nil

	case domain.ActionUpdate:
		current, err := m.currentTrack(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		var payload domain.TrackPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if err := m.authorizeOwnerSigner(ctx, staging, current.OwnerID, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		if payload.Title != "" {
			next.Title = payload.Title
		}
		if payload.Duration > 0 {
			next.Duration = payload.Duration
		}
		if payload.Genre != "" {
			next.Genre = payload.Genre
		}
		staging.Add(store.StagedVersion{Kind: domain.EntityTrack, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	case domain.ActionDelete:
		current, err := m.currentTrack(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		if err := m.authorizeOwnerSigner(ctx, staging, current.OwnerID, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		next.IsDelete = true
		staging.Add(store.StagedVersion{Kind: domain.EntityTrack, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unsupported action for tracks", nil)
	}
}

func (m *Manager) processPlaylist(ctx context.Context, staging *StagingContext, block *domain.Block, mut *domain.EntityMutation, version schema.VersionColumns) ([]domain.ChallengeEvent, error) {
	switch mut.Action {
	case domain.ActionCreate:
		var payload domain.PlaylistPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if payload.Name == "" {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "name is required", nil)
		}
		owner, err := m.currentUser(ctx, staging, payload.OwnerID)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("owner user %d", payload.OwnerID), err)
		}
		if err := m.authorizeUserSigner(ctx, staging, owner, mut); err != nil {
			return nil, err
		}
		if err := m.requireFree(ctx, staging, mut); err != nil {
			return nil, err
		}
		if err := m.requireTracks(ctx, staging, mut, payload.TrackIDs); err != nil {
			return nil, err
		}
		trackIDs, err := json.Marshal(payload.TrackIDs)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "encode track ids", err)
		}
		staging.Add(store.StagedVersion{
			Kind:     domain.EntityPlaylist,
			EntityID: mut.EntityID,
			Record: &schema.Playlist{
				VersionColumns: version,
				OwnerID:        payload.OwnerID,
				Name:           payload.Name,
				TrackIDs:       datatypes.JSON(trackIDs),
				IsAlbum:        payload.IsAlbum,
			},
		})
		event := m.newEvent(domain.ChallengeEventPlaylistCreate, payload.OwnerID, block, map[string]any{
			"playlist_id": mut.EntityID,
			"is_album":    payload.IsAlbum,
		})
		return []domain.ChallengeEvent{event}, nil

	case domain.ActionUpdate:
		current, err := m.currentPlaylist(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		var payload domain.PlaylistPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if err := m.authorizeOwnerSigner(ctx, staging, current.OwnerID, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		if payload.Name != "" {
			next.Name = payload.Name
		}
		if payload.TrackIDs != nil {
			if err := m.requireTracks(ctx, staging, mut, payload.TrackIDs); err != nil {
				return nil, err
			}
			trackIDs, err := json.Marshal(payload.TrackIDs)
			if err != nil {
				return nil, domain.NewValidationError(mut.Kind, mut.Action, "encode track ids", err)
			}
			next.TrackIDs = datatypes.JSON(trackIDs)
		}
		staging.Add(store.StagedVersion{Kind: domain.EntityPlaylist, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	case domain.ActionDelete:
		current, err := m.currentPlaylist(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		if err := m.authorizeOwnerSigner(ctx, staging, current.OwnerID, mut); err != nil {
			return nil, err
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		next.IsDelete = true
		staging.Add(store.StagedVersion{Kind: domain.EntityPlaylist, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unsupported action for playlists", nil)
	}
}

func (m *Manager) processDelegate(ctx context.Context, staging *StagingContext, mut *domain.EntityMutation, version schema.VersionColumns) ([]domain.ChallengeEvent, error) {
	switch mut.Action {
	case domain.ActionCreate:
		var payload domain.DelegatePayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if payload.DelegateAddress == "" {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "delegate address is required", nil)
		}
		granter, err := m.currentUser(ctx, staging, payload.UserID)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("granting user %d", payload.UserID), err)
		}
		// Grants cannot chain: only the wallet itself can delegate.
		if !sameAddress(mut.Signer, granter.Wallet) {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "signer must be the granting user's wallet", nil)
		}
		if err := m.requireFree(ctx, staging, mut); err != nil {
			return nil, err
		}
		staging.Add(store.StagedVersion{
			Kind:     domain.EntityDelegate,
			EntityID: mut.EntityID,
			Record: &schema.Delegate{
				VersionColumns:  version,
				UserID:          payload.UserID,
				DelegateAddress: payload.DelegateAddress,
			},
		})
		return nil, nil

	case domain.ActionDelete:
		current, err := m.currentDelegate(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		granter, err := m.currentUser(ctx, staging, current.UserID)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("granting user %d", current.UserID), err)
		}
		// Either side of the grant may revoke it.
		if !sameAddress(mut.Signer, granter.Wallet) && !sameAddress(mut.Signer, current.DelegateAddress) {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "signer must be the granter or the delegate", nil)
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		next.IsRevoked = true
		staging.Add(store.StagedVersion{Kind: domain.EntityDelegate, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unsupported action for delegates", nil)
	}
}

func (m *Manager) processNotification(ctx context.Context, staging *StagingContext, block *domain.Block, mut *domain.EntityMutation, version schema.VersionColumns) ([]domain.ChallengeEvent, error) {
	switch mut.Action {
	case domain.ActionCreate:
		var payload domain.NotificationPayload
		if err := decodePayload(mut, &payload); err != nil {
			return nil, err
		}
		if _, err := m.currentUser(ctx, staging, payload.UserID); err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("addressed user %d", payload.UserID), err)
		}
		if err := m.requireFree(ctx, staging, mut); err != nil {
			return nil, err
		}
		staging.Add(store.StagedVersion{
			Kind:     domain.EntityNotification,
			EntityID: mut.EntityID,
			Record: &schema.Notification{
				VersionColumns: version,
				UserID:         payload.UserID,
				GroupID:        payload.GroupID,
			},
		})
		return nil, nil

	case domain.ActionView:
		current, err := m.currentNotification(ctx, staging, mut.EntityID)
		if err != nil {
			return nil, wrapLookup(mut, err)
		}
		addressee, err := m.currentUser(ctx, staging, current.UserID)
		if err != nil {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("addressed user %d", current.UserID), err)
		}
		if !sameAddress(mut.Signer, addressee.Wallet) {
			return nil, domain.NewValidationError(mut.Kind, mut.Action, "only the addressed user can mark a notification seen", nil)
		}
		next := *current
		next.ID = 0
		next.VersionColumns = version
		seenAt := block.Timestamp
		next.SeenAt = &seenAt
		staging.Add(store.StagedVersion{Kind: domain.EntityNotification, EntityID: mut.EntityID, Record: &next})
		return nil, nil

	default:
		return nil, domain.NewValidationError(mut.Kind, mut.Action, "unsupported action for notifications", nil)
	}
}

func (m *Manager) newEvent(eventType domain.ChallengeEventType, userID int64, block *domain.Block, extra map[string]any) domain.ChallengeEvent {
	return domain.ChallengeEvent{
		ID:          ulid.Make().String(),
		Type:        eventType,
		UserID:      userID,
		BlockNumber: block.Height,
		Extra:       extra,
	}
}
