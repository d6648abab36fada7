package output

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
)

func TestKafkaPublisherSendsSnapshot(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var snap dataset.Snapshot
		if err := json.Unmarshal(val, &snap); err != nil {
			return err
		}
		if snap.Version != "v1" || snap.Summary.TotalOrders != 24 || !snap.Fallback {
			return errors.New("unexpected snapshot payload")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "darkstore_metrics_snapshots", nil)
	err := pub.Publish(context.Background(), dataset.Snapshot{
		Version:   "v1",
		Source:    "sample",
		Fallback:  true,
		FetchedAt: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
		Summary:   metrics.Summary{TotalOrders: 24},
	})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherPropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "topic", nil)
	err := pub.Publish(context.Background(), dataset.Snapshot{Version: "v1"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherWithoutProducer(t *testing.T) {
	pub := NewKafkaPublisherWithProducer(nil, "topic", nil)
	assert.Error(t, pub.Publish(context.Background(), dataset.Snapshot{}))
	assert.NoError(t, pub.Close())
}

func TestSaramaConfig(t *testing.T) {
	cfg := NewSaramaConfig()
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
}
