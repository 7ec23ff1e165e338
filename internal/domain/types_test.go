package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/domain"
)

func TestIsValidChain(t *testing.T) {
	tests := []struct {
		name  string
		chain domain.Chain
		valid bool
	}{
		{name: "registry chain", chain: domain.ChainRegistry, valid: true},
		{name: "payments chain", chain: domain.ChainPayments, valid: true},
		{name: "core chain", chain: domain.ChainCore, valid: true},
		{name: "unknown chain", chain: domain.Chain("mainnet"), valid: false},
		{name: "empty chain", chain: domain.Chain(""), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, domain.IsValidChain(tt.chain))
		})
	}
}

func TestLockAndQueueScopes(t *testing.T) {
	assert.Equal(t, "indexer:lock:registry", domain.LockScope(domain.ChainRegistry))
	assert.Equal(t, "indexer:rewards:core", domain.QueueScope(domain.ChainCore))
}

func TestChallengeEventRoundTrip(t *testing.T) {
	event := domain.ChallengeEvent{
		ID:          "01J0000000000000000000TEST",
		Type:        domain.ChallengeEventTrackUpload,
		UserID:      42,
		BlockNumber: 1337,
		Extra:       map[string]any{"track_id": float64(7)},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded domain.ChallengeEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event, decoded)
}

func TestValidationError(t *testing.T) {
	cause := fmt.Errorf("wrapped: %w", domain.ErrEntityNotFound)
	err := domain.NewValidationError(domain.EntityTrack, domain.ActionUpdate, "track does not exist", cause)

	assert.True(t, domain.IsValidation(err))
	assert.True(t, errors.Is(err, domain.ErrEntityNotFound))
	assert.Contains(t, err.Error(), "update track rejected")

	assert.False(t, domain.IsValidation(domain.ErrBlockNotFound))
}

func TestEntityKindsCoversClosedSet(t *testing.T) {
	kinds := domain.EntityKinds()
	require.Len(t, kinds, 5)
	assert.Equal(t, domain.EntityUser, kinds[0])
	assert.Contains(t, kinds, domain.EntityNotification)
}
