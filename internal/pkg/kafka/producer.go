package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the producer relies on
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer appends keyed JSON records to a single topic
type Producer struct {
	writer  messageWriter
	timeout time.Duration
}

// NewProducer creates a producer for the configured timeline topic
func NewProducer(cfg models.KafkaConfig) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.TimelineTopic,
		Balancer: &kafka.Hash{},
	})
	return newProducer(w, cfg.WriteTimeout)
}

func newProducer(w messageWriter, timeout time.Duration) *Producer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Producer{writer: w, timeout: timeout}
}

// PublishJSON writes v under key. Records sharing a key land on the same
// partition, which keeps one trip's timeline ordered.
func (p *Producer) PublishJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
