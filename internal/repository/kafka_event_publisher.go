package repository

import (
	"context"
	"time"

	"Horacle/internal/domain/models"
	domrepo "Horacle/internal/domain/repository"
	pkgkafka "Horacle/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher publishes every emitted event record, keyed by run id
// so one run lands on one partition in order.
type KafkaEventPublisher struct {
	producer batchPublisher
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

// EventEnvelope is the wire form of a published event.
type EventEnvelope struct {
	RunID       string             `json:"run_id"`
	Seq         int                `json:"seq"`
	Total       int                `json:"total"`
	PublishedAt time.Time          `json:"published_at"`
	Event       models.EventRecord `json:"event"`
}

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return newKafkaEventPublisher(producer, topic)
}

func newKafkaEventPublisher(p batchPublisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, runID string, events []models.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now().UTC()
	headers := map[string]string{pkgkafka.TraceHeader: runID}
	msgs := make([]pkgkafka.Message, len(events))
	for i, ev := range events {
		msgs[i] = pkgkafka.Message{
			Key: []byte(runID),
			Value: EventEnvelope{
				RunID:       runID,
				Seq:         i,
				Total:       len(events),
				PublishedAt: now,
				Event:       ev,
			},
			Headers: headers,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
