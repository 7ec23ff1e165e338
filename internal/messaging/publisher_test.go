package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/mocks"
)

func testConfig() Config {
	return Config{
		URL:            "nats://localhost:4222",
		StreamName:     "INDEXED_BLOCKS",
		SubjectPrefix:  "indexer.blocks",
		MaxReconnects:  5,
		ReconnectWait:  time.Second,
		ConnectionName: "indexer-test",
	}
}

func TestPublisherPublishBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	natsJS := mocks.NewMockNatsJetStream(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).
		Return(nc, js, nil)
	js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
			assert.Equal(t, "INDEXED_BLOCKS", cfg.Name)
			assert.Equal(t, []string{"indexer.blocks.>"}, cfg.Subjects)
			return nil, nil
		})

	pub, err := NewPublisher(context.Background(), testConfig(), natsJS, adapter.NewJSON())
	require.NoError(t, err)

	js.EXPECT().Publish(gomock.Any(), "indexer.blocks.registry", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			var decoded domain.BlockNotification
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.EqualValues(t, 42, decoded.Height)
			assert.Equal(t, map[string]int{"user": 1}, decoded.EntityCounts)
			return &jetstream.PubAck{}, nil
		})

	err = pub.PublishBlock(context.Background(), domain.BlockNotification{
		Chain:        domain.ChainRegistry,
		Height:       42,
		BlockHash:    "0xabc",
		EntityCounts: map[string]int{"user": 1},
	})
	require.NoError(t, err)

	nc.EXPECT().Close()
	pub.Close()
}

func TestPublisherConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("connection refused"))

	_, err := NewPublisher(context.Background(), testConfig(), natsJS, adapter.NewJSON())
	assert.ErrorContains(t, err, "connect to NATS")
}

func TestPublisherStreamFailureClosesConn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	natsJS := mocks.NewMockNatsJetStream(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).
		Return(nc, js, nil)
	js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(nil, errors.New("no jetstream"))
	nc.EXPECT().Close()

	_, err := NewPublisher(context.Background(), testConfig(), natsJS, adapter.NewJSON())
	assert.ErrorContains(t, err, "ensure stream")
}
