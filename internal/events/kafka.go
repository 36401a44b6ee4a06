package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"tachi/internal/adapters/config"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes job lifecycle events to a Kafka topic, keyed by job
// id so one job's transitions stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaPublisher creates a publisher for the configured topic.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: logger.Get().With("component", "kafka_publisher", "topic", cfg.Topic),
	}
}

// PublishJobEvent emits one lifecycle transition.
func (p *KafkaPublisher) PublishJobEvent(ctx context.Context, event JobEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal job event")
	}

	msg := kafka.Message{
		Key:   []byte(event.JobID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorf("Failed to publish job event for %s: %v", event.JobID, err)
		return errors.Wrap(err, "publish job event")
	}

	p.log.Debugf("Published job event %s/%s", event.JobID, event.State)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
