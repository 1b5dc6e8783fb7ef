package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"storefront/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

type KafkaOrderPublisher struct {
	writer *kafka.Writer
}

func NewKafkaOrderPublisher(brokers []string, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaOrderPublisher) PublishOrderPlaced(ctx context.Context, e event.OrderPlaced) error {
	return p.publish(ctx, event.TypeOrderPlaced, e.OrderID, e)
}

func (p *KafkaOrderPublisher) PublishOrderStatusChanged(ctx context.Context, e event.OrderStatusChanged) error {
	return p.publish(ctx, event.TypeOrderStatusChanged, e.OrderID, e)
}

// 同じ注文のイベントは同じパーティションに入れる
func (p *KafkaOrderPublisher) publish(ctx context.Context, typ string, orderID int64, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(orderID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(typ)},
		},
	})
}

func (p *KafkaOrderPublisher) Close() error {
	return p.writer.Close()
}

// KAFKA_BROKERS 未設定のとき
type NopOrderPublisher struct{}

func (NopOrderPublisher) PublishOrderPlaced(context.Context, event.OrderPlaced) error { return nil }
func (NopOrderPublisher) PublishOrderStatusChanged(context.Context, event.OrderStatusChanged) error {
	return nil
}
