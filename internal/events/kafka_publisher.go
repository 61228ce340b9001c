package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 5 * time.Second
	batchTimeout = 10 * time.Millisecond
)

// OrderCreatedEvent is the payload published for every committed order
type OrderCreatedEvent struct {
	OrderID   string            `json:"order_id"`
	Total     float64           `json:"total"`
	Status    model.OrderStatus `json:"status"`
	ItemCount int               `json:"item_count"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewOrderCreatedEvent(order *model.Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:   order.ID,
		Total:     order.Total,
		Status:    order.Status,
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a single topic, keyed by order ID so
// every event for one order lands on the same partition
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher returns an asynchronous publisher: OrderCreated only
// enqueues the message and delivery failures are logged from the writer's
// completion callback.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           writeTimeout,
			BatchTimeout:           batchTimeout,
			Async:                  true,
			Completion:             logDelivery(topic),
		},
		topic: topic,
	}
}

func logDelivery(topic string) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		keys := make([]string, 0, len(messages))
		for _, m := range messages {
			keys = append(keys, string(m.Key))
		}
		logger.Error("Failed to deliver order events", err, map[string]interface{}{
			"topic":     topic,
			"order_ids": keys,
		})
	}
}

func (p *KafkaPublisher) OrderCreated(ctx context.Context, order *model.Order) error {
	data, err := json.Marshal(NewOrderCreatedEvent(order))
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", p.topic, err)
	}

	logger.Debug("Order event queued", map[string]interface{}{
		"order_id": order.ID,
		"topic":    p.topic,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
