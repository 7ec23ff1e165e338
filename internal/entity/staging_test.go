package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store"
	"github.com/soundweave/indexer/internal/store/schema"
)

func TestStagingContextLatestWins(t *testing.T) {
	staging := NewStagingContext()

	staging.Add(store.StagedVersion{
		Kind:     domain.EntityUser,
		EntityID: 7,
		Record:   &schema.User{Handle: "first"},
	})
	staging.Add(store.StagedVersion{
		Kind:     domain.EntityUser,
		EntityID: 7,
		Record:   &schema.User{Handle: "second"},
	})

	latest, ok := staging.Latest(domain.EntityUser, 7)
	assert.True(t, ok)
	assert.Equal(t, "second", latest.Record.(*schema.User).Handle)

	// only the final version of the id is flushed
	versions := staging.Versions()
	assert.Len(t, versions, 1)
	assert.Equal(t, "second", versions[0].Record.(*schema.User).Handle)
	assert.Equal(t, 1, staging.Len())
}

func TestStagingContextKindsAreIndependent(t *testing.T) {
	staging := NewStagingContext()

	staging.Add(store.StagedVersion{Kind: domain.EntityUser, EntityID: 1, Record: &schema.User{Handle: "alice"}})
	staging.Add(store.StagedVersion{Kind: domain.EntityTrack, EntityID: 1, Record: &schema.Track{Title: "song"}})

	_, ok := staging.Latest(domain.EntityUser, 1)
	assert.True(t, ok)
	_, ok = staging.Latest(domain.EntityTrack, 1)
	assert.True(t, ok)
	_, ok = staging.Latest(domain.EntityPlaylist, 1)
	assert.False(t, ok)

	assert.Len(t, staging.Versions(), 2)
}

func TestStagingContextLatestOfKind(t *testing.T) {
	staging := NewStagingContext()

	staging.Add(store.StagedVersion{Kind: domain.EntityDelegate, EntityID: 10, Record: &schema.Delegate{UserID: 1}})
	staging.Add(store.StagedVersion{Kind: domain.EntityUser, EntityID: 1, Record: &schema.User{Handle: "alice"}})
	staging.Add(store.StagedVersion{Kind: domain.EntityDelegate, EntityID: 10, Record: &schema.Delegate{UserID: 1, IsRevoked: true}})
	staging.Add(store.StagedVersion{Kind: domain.EntityDelegate, EntityID: 11, Record: &schema.Delegate{UserID: 2}})

	grants := staging.LatestOfKind(domain.EntityDelegate)
	assert.Len(t, grants, 2)
	assert.True(t, grants[0].Record.(*schema.Delegate).IsRevoked)
	assert.EqualValues(t, 11, grants[1].EntityID)
}

func TestStagingContextEmpty(t *testing.T) {
	staging := NewStagingContext()

	_, ok := staging.Latest(domain.EntityUser, 1)
	assert.False(t, ok)
	assert.Empty(t, staging.Versions())
	assert.Zero(t, staging.Len())
}
