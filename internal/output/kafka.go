package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/logging"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

// KafkaPublisher sends dataset snapshots to a topic, keyed by version.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewSaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second
	return saramaConfig
}

func NewKafkaPublisher(cfg *models.Config, logger *zap.Logger) (*KafkaPublisher, error) {
	logger = logging.OrNop(logger)
	sarama.Logger = logging.NewPrintAdapter(logger.Named("sarama"))

	brokerList := strings.Split(cfg.KafkaBrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logger.Info("kafka producer created", zap.Strings("brokers", brokerList), zap.String("topic", cfg.KafkaTopic))
	return NewKafkaPublisherWithProducer(producer, cfg.KafkaTopic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logging.OrNop(logger)}
}

func (k *KafkaPublisher) Publish(ctx context.Context, snap dataset.Snapshot) error {
	if k.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	partition, offset, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(snap.Version),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("send snapshot to %s: %w", k.topic, err)
	}

	k.logger.Debug("snapshot published",
		zap.String("version", snap.Version),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
