package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends stock events to a topic, keyed by product id so one
// product's events stay in order within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher builds an async writer for a comma separated broker list.
// Delivery failures are logged from the completion callback.
func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{topic: topic, logger: logger}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(splitBrokers(brokers)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

func newKafkaPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal stock event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Product.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
		Time: event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish stock event",
			zap.String("action", event.Action),
			zap.String("product_id", event.Product.ID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err != nil {
		p.logger.Error("Kafka delivery failed", zap.String("topic", p.topic), zap.Int("messages", len(messages)), zap.Error(err))
		return
	}
	p.logger.Debug("Kafka delivery ok", zap.String("topic", p.topic), zap.Int("messages", len(messages)))
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
