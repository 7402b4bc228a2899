package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Типы событий жизненного цикла подписки.
const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionPaid     = "subscription.paid"
	EventSubscriptionUnpaid   = "subscription.unpaid"
	EventSubscriptionCanceled = "subscription.canceled"
	EventSubscriptionExpired  = "subscription.expired"
)

// SubscriptionEvent событие жизненного цикла подписки, публикуемое в Kafka.
type SubscriptionEvent struct {
	Type           string    `json:"type"`
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id,omitempty"`
	PlanID         string    `json:"plan_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Producer публикует события подписок.
type Producer interface {
	// PublishSubscriptionEvent отправляет событие. Ключ сообщения —
	// идентификатор подписки, чтобы события одной подписки попадали в одну
	// партицию и сохраняли порядок.
	PublishSubscriptionEvent(ctx context.Context, event SubscriptionEvent) error
	// Close закрывает соединение продюсера.
	Close() error
}

// kafkaProducer реализует Producer поверх segmentio/kafka-go.
type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer создает продюсер событий подписок.
func NewKafkaProducer(brokers []string, topic string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers, "topic", topic)
	return &kafkaProducer{writer: writer, log: log}, nil
}

// PublishSubscriptionEvent сериализует событие в JSON и отправляет в Kafka.
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, event SubscriptionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		k.log.Errorw("Failed to marshal subscription event", "error", err, "type", event.Type, "subscriptionID", event.SubscriptionID)
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.SubscriptionID),
		Value: value,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			k.log.Errorw("Kafka write timeout exceeded", "error", err, "type", event.Type, "subscriptionID", event.SubscriptionID)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		k.log.Errorw("Failed to write message to Kafka", "error", err, "type", event.Type, "subscriptionID", event.SubscriptionID)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Subscription event published", "type", event.Type, "subscriptionID", event.SubscriptionID)
	return nil
}

// Close закрывает Kafka Writer.
func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	k.log.Infow("Kafka producer writer closed")
	return nil
}

// NopProducer заглушка продюсера для запуска без Kafka.
type NopProducer struct{}

// PublishSubscriptionEvent ничего не делает.
func (NopProducer) PublishSubscriptionEvent(ctx context.Context, event SubscriptionEvent) error {
	return nil
}

// Close ничего не делает.
func (NopProducer) Close() error { return nil }
