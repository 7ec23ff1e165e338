package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store/schema"
)

// MaxEntityID bounds chain-assigned entity ids. Ids above it are malformed
// and rejected before any state lookup.
const MaxEntityID = 1<<31 - 1

func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

func decodePayload(mut *domain.EntityMutation, out any) error {
	if len(mut.Payload) == 0 {
		return domain.NewValidationError(mut.Kind, mut.Action, "missing payload", nil)
	}
	if err := json.Unmarshal(mut.Payload, out); err != nil {
		return domain.NewValidationError(mut.Kind, mut.Action, "malformed payload", err)
	}
	return nil
}

func wrapLookup(mut *domain.EntityMutation, err error) error {
	if errors.Is(err, domain.ErrEntityNotFound) {
		return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("entity %d", mut.EntityID), err)
	}
	return err
}

// requireFree rejects a CREATE whose id already has any version, staged or
// durable. Deleted ids stay taken: ids are never reused.
func (m *Manager) requireFree(ctx context.Context, staging *StagingContext, mut *domain.EntityMutation) error {
	if _, ok := staging.Latest(mut.Kind, mut.EntityID); ok {
		return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("entity %d", mut.EntityID), domain.ErrEntityExists)
	}
	exists, err := m.store.EntityExists(ctx, mut.Kind, mut.EntityID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("entity %d", mut.EntityID), domain.ErrEntityExists)
	}
	return nil
}

// requireTracks checks that every referenced track id resolves to a live
// track, reading the staging context first for same-block uploads
func (m *Manager) requireTracks(ctx context.Context, staging *StagingContext, mut *domain.EntityMutation, trackIDs []int64) error {
	for _, id := range trackIDs {
		track, err := m.currentTrack(ctx, staging, id)
		if err != nil {
			if errors.Is(err, domain.ErrEntityNotFound) {
				return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("track %d does not exist", id), nil)
			}
			return err
		}
		if track.IsDelete {
			return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("track %d is deleted", id), nil)
		}
	}
	return nil
}

// authorizeUserSigner accepts the user's own wallet or any active delegate,
// including grants staged earlier in the same block
func (m *Manager) authorizeUserSigner(ctx context.Context, staging *StagingContext, user *schema.User, mut *domain.EntityMutation) error {
	if sameAddress(mut.Signer, user.Wallet) {
		return nil
	}
	for _, v := range staging.LatestOfKind(domain.EntityDelegate) {
		grant, ok := v.Record.(*schema.Delegate)
		if !ok {
			continue
		}
		if grant.UserID == user.EntityID && !grant.IsRevoked && sameAddress(mut.Signer, grant.DelegateAddress) {
			return nil
		}
	}
	grants, err := m.store.GetActiveDelegations(ctx, user.EntityID)
	if err != nil {
		return err
	}
	for _, grant := range grants {
		if !sameAddress(mut.Signer, grant.DelegateAddress) {
			continue
		}
		// A revocation staged this block wins over the durable grant.
		if staged, ok := staging.Latest(domain.EntityDelegate, grant.EntityID); ok {
			if revoked, ok := staged.Record.(*schema.Delegate); ok && revoked.IsRevoked {
				continue
			}
		}
		return nil
	}
	return domain.NewValidationError(mut.Kind, mut.Action, "signer is not the owner or an active delegate", nil)
}

func (m *Manager) authorizeOwnerSigner(ctx context.Context, staging *StagingContext, ownerID int64, mut *domain.EntityMutation) error {
	owner, err := m.currentUser(ctx, staging, ownerID)
	if err != nil {
		return domain.NewValidationError(mut.Kind, mut.Action, fmt.Sprintf("owner user %d", ownerID), err)
	}
	return m.authorizeUserSigner(ctx, staging, owner, mut)
}

// currentUser resolves a user through the staging context first so that
// later transactions in a block observe earlier staged writes
func (m *Manager) currentUser(ctx context.Context, staging *StagingContext, id int64) (*schema.User, error) {
	if v, ok := staging.Latest(domain.EntityUser, id); ok {
		user, ok := v.Record.(*schema.User)
		if !ok || user.IsDelete {
			return nil, domain.ErrEntityNotFound
		}
		return user, nil
	}
	user, err := m.store.GetCurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDelete {
		return nil, domain.ErrEntityNotFound
	}
	return user, nil
}

func (m *Manager) currentTrack(ctx context.Context, staging *StagingContext, id int64) (*schema.Track, error) {
	if v, ok := staging.Latest(domain.EntityTrack, id); ok {
		track, ok := v.Record.(*schema.Track)
		if !ok || track.IsDelete {
			return nil, domain.ErrEntityNotFound
		}
		return track, nil
	}
	track, err := m.store.GetCurrentTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	if track.IsDelete {
		return nil, domain.ErrEntityNotFound
	}
	return track, nil
}

func (m *Manager) currentPlaylist(ctx context.Context, staging *StagingContext, id int64) (*schema.Playlist, error) {
	if v, ok := staging.Latest(domain.EntityPlaylist, id); ok {
		playlist, ok := v.Record.(*schema.Playlist)
		if !ok || playlist.IsDelete {
			return nil, domain.ErrEntityNotFound
		}
		return playlist, nil
	}
	playlist, err := m.store.GetCurrentPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist.IsDelete {
		return nil, domain.ErrEntityNotFound
	}
	return playlist, nil
}

func (m *Manager) currentDelegate(ctx context.Context, staging *StagingContext, id int64) (*schema.Delegate, error) {
	if v, ok := staging.Latest(domain.EntityDelegate, id); ok {
		grant, ok := v.Record.(*schema.Delegate)
		if !ok || grant.IsRevoked {
			return nil, domain.ErrEntityNotFound
		}
		return grant, nil
	}
	grant, err := m.store.GetCurrentDelegate(ctx, id)
	if err != nil {
		return nil, err
	}
	if grant.IsRevoked {
		return nil, domain.ErrEntityNotFound
	}
	return grant, nil
}

func (m *Manager) currentNotification(ctx context.Context, staging *StagingContext, id int64) (*schema.Notification, error) {
	if v, ok := staging.Latest(domain.EntityNotification, id); ok {
		notification, ok := v.Record.(*schema.Notification)
		if !ok {
			return nil, domain.ErrEntityNotFound
		}
		return notification, nil
	}
	return m.store.GetCurrentNotification(ctx, id)
}
