package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by order ID so every event of
// one order lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

// Publish writes one event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("topic", p.topic).
			Str("type", event.Type).
			Str("order_id", event.OrderID).
			Msg("failed to publish event")
		return fmt.Errorf("kafka: failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Msg("event published")

	return nil
}

// Close flushes pending writes and releases the connection.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
