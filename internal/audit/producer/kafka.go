package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"rocr/backend/internal/audit/domain"
)

// KafkaProducer publishes audit events to a Kafka topic using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
	logger zerolog.Logger
}

// NewKafkaProducer creates a producer that writes audit events to topic.
// Returns nil when brokers or topic is empty so callers can treat Kafka as optional.
func NewKafkaProducer(brokers []string, topic string, logger zerolog.Logger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: writer, topic: topic, logger: logger}
}

// Publish serializes the entry as JSON and writes it keyed by user id, so one user's events stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, entry *domain.AuditLog) error {
	if p == nil || p.writer == nil || entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var key []byte
	if entry.UserID != "" {
		key = []byte(entry.UserID)
	}
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{Key: key, Value: payload}); err != nil {
		p.logger.Warn().Err(err).Str("topic", p.topic).Str("action", entry.Action).Msg("audit: kafka publish failed")
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
