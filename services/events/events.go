package events

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types published by the service
const (
	AppointmentCreated       = "appointment.created"
	AppointmentStatusChanged = "appointment.status_changed"
	RecordCreated            = "record.created"
)

const publishAttempts = 3

// Envelope wraps every published payload
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher sends domain events to a broker
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                               { return nil }

// KafkaPublisher writes events to "<prefix>.<event type>" topics
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
	logger *zap.Logger
}

// NewPublisher returns a Kafka publisher, or a NopPublisher when no
// brokers are configured
func NewPublisher(brokers []string, topicPrefix string, logger *zap.Logger) Publisher {
	var valid []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			valid = append(valid, b)
		}
	}
	if len(valid) == 0 {
		logger.Info("Kafka is disabled (KAFKA_BROKERS is empty)")
		return NopPublisher{}
	}

	logger.Info("Kafka producer initialized", zap.Strings("brokers", valid))
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(valid...),
			Balancer:               &kafka.LeastBytes{},
			WriteTimeout:           10 * time.Second,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		prefix: topicPrefix,
		logger: logger,
	}
}

// Topic maps an event type to its topic name
func (p *KafkaPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish marshals the event and writes it, retrying with exponential backoff
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	value, err := json.Marshal(Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.Topic(eventType),
		Key:   []byte(key),
		Value: value,
	}

	var lastErr error
	for attempt := 0; attempt < publishAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < publishAttempts-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			p.logger.Warn("Kafka publish failed, retrying",
				zap.String("topic", msg.Topic), zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("kafka publish to %s failed after %d attempts: %w", msg.Topic, publishAttempts, lastErr)
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Emit publishes in the background so request latency never depends on the broker
func Emit(p Publisher, logger *zap.Logger, eventType, key string, payload interface{}) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.Publish(ctx, eventType, key, payload); err != nil {
			logger.Error("failed to publish event", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
		}
	}()
}
