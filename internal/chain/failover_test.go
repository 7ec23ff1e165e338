package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/chain"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/mocks"
)

func TestFailoverFirstEndpointHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockChainClient(ctrl)
	secondary := mocks.NewMockChainClient(ctrl)

	block := &domain.Block{Chain: domain.ChainCore, Height: 10, Hash: "0xabc"}
	primary.EXPECT().GetBlock(gomock.Any(), uint64(10)).Return(block, nil)

	f := chain.NewFailover(domain.ChainCore, []chain.Client{primary, secondary}, 3, time.Millisecond)

	got, err := f.GetBlock(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, block, got)
}

func TestFailoverRetriesThenMovesToNextEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockChainClient(ctrl)
	secondary := mocks.NewMockChainClient(ctrl)

	rpcErr := errors.New("connection refused")
	// Full retry budget on the first endpoint before escalating
	primary.EXPECT().GetBlock(gomock.Any(), uint64(5)).Return(nil, rpcErr).Times(2)
	secondary.EXPECT().GetBlock(gomock.Any(), uint64(5)).
		Return(&domain.Block{Chain: domain.ChainCore, Height: 5}, nil)

	f := chain.NewFailover(domain.ChainCore, []chain.Client{primary, secondary}, 2, time.Millisecond)

	got, err := f.GetBlock(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Height)
}

func TestFailoverBlockNotFoundShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockChainClient(ctrl)
	secondary := mocks.NewMockChainClient(ctrl)

	// Not-yet-produced is a result, not a failure: no retries, no failover
	primary.EXPECT().GetBlock(gomock.Any(), uint64(99)).Return(nil, domain.ErrBlockNotFound).Times(1)

	f := chain.NewFailover(domain.ChainCore, []chain.Client{primary, secondary}, 3, time.Millisecond)

	_, err := f.GetBlock(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}

func TestFailoverAllEndpointsExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockChainClient(ctrl)
	secondary := mocks.NewMockChainClient(ctrl)

	rpcErr := errors.New("timeout")
	primary.EXPECT().GetNodeInfo(gomock.Any()).Return(domain.NodeInfo{}, rpcErr).Times(2)
	secondary.EXPECT().GetNodeInfo(gomock.Any()).Return(domain.NodeInfo{}, rpcErr).Times(2)

	f := chain.NewFailover(domain.ChainRegistry, []chain.Client{primary, secondary}, 2, time.Millisecond)

	_, err := f.GetNodeInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on all 2 endpoints")
	assert.ErrorIs(t, err, rpcErr)
}
