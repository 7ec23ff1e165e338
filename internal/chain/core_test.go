package chain_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/chain"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/mocks"
)

func respondWith(body string) func(ctx context.Context, url string, result any) error {
	return func(ctx context.Context, url string, result any) error {
		return json.Unmarshal([]byte(body), result)
	}
}

func TestCoreClientGetNodeInfo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), "http://core-node:26659/core/nodeinfo", gomock.Any()).
		DoAndReturn(respondWith(`{"chainid": "core-mainnet", "current_height": 4120, "synced": true}`))

	client := chain.NewCoreClient("http://core-node:26659/", httpClient)

	info, err := client.GetNodeInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "core-mainnet", info.ChainID)
	assert.Equal(t, uint64(4120), info.CurrentHeight)
	assert.True(t, info.Synced)
}

func TestCoreClientGetBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), "http://core-node:26659/core/block/42", gomock.Any()).
		DoAndReturn(respondWith(`{
			"height": 42,
			"blockhash": "0xb42",
			"parenthash": "0xb41",
			"timestamp": 1700000000,
			"transactions": [
				{
					"kind": "manage_entity",
					"hash": "0xt1",
					"index": 0,
					"payload": {"kind": "user", "action": "create", "entity_id": 10, "signer": "0xW", "payload": {"wallet": "0xW", "handle": "alice"}}
				},
				{
					"kind": "play",
					"hash": "0xt2",
					"index": 1,
					"payload": {"user_id": 10, "track_id": 7, "signer": "0xW"}
				},
				{
					"kind": "sla_rollup",
					"hash": "0xt3",
					"index": 2,
					"payload": {}
				},
				{
					"kind": "governance_vote",
					"hash": "0xt4",
					"index": 3,
					"payload": {}
				}
			]
		}`))

	client := chain.NewCoreClient("http://core-node:26659", httpClient)

	block, err := client.GetBlock(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.ChainCore, block.Chain)
	assert.Equal(t, uint64(42), block.Height)
	assert.Equal(t, "0xb42", block.Hash)
	assert.Equal(t, "0xb41", block.ParentHash)
	require.Len(t, block.Transactions, 4)

	entity := block.Transactions[0]
	assert.Equal(t, domain.TxKindEntity, entity.Kind)
	require.NotNil(t, entity.Entity)
	assert.Equal(t, domain.EntityUser, entity.Entity.Kind)
	assert.Equal(t, domain.ActionCreate, entity.Entity.Action)
	assert.Equal(t, int64(10), entity.Entity.EntityID)
	assert.Equal(t, "0xW", entity.Entity.Signer)

	play := block.Transactions[1]
	assert.Equal(t, domain.TxKindPlay, play.Kind)
	require.NotNil(t, play.Play)
	assert.Equal(t, int64(7), play.Play.TrackID)

	// Recognized non-indexed payload stays typed; unrecognized becomes unknown
	assert.Equal(t, domain.TxKindSLARollup, block.Transactions[2].Kind)
	assert.Equal(t, domain.TxKindUnknown, block.Transactions[3].Kind)
}

func TestCoreClientGetBlockNotYetProduced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Get(gomock.Any(), "http://core-node:26659/core/block/9000", gomock.Any()).
		DoAndReturn(respondWith(`{"height": -1}`))

	client := chain.NewCoreClient("http://core-node:26659", httpClient)

	_, err := client.GetBlock(context.Background(), 9000)
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}

func TestSolanaClientSignatures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		PostJSON(gomock.Any(), "http://rpc.payments", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url string, body any, result any) error {
			return json.Unmarshal([]byte(`{"result": [{"signature": "sigA"}, {"signature": "sigB"}]}`), result)
		})

	client := chain.NewSolanaClient("http://rpc.payments", "Prog111", httpClient)

	sigs, err := client.GetLatestSignaturesForAddress(context.Background(), "Prog111", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"sigA", "sigB"}, sigs)
}

func TestSolanaClientSlotNotAvailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		PostJSON(gomock.Any(), "http://rpc.payments", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url string, body any, result any) error {
			return json.Unmarshal([]byte(`{"error": {"code": -32009, "message": "slot was skipped"}}`), result)
		})

	client := chain.NewSolanaClient("http://rpc.payments", "Prog111", httpClient)

	_, err := client.GetBlock(context.Background(), 555)
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}
