package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/admin5fedu/duraval-app-sub010/models"
	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/segmentio/kafka-go"
)

type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, models.ImportCompletedEvent) error { return nil }

// SNSEventPublisher publishes completion events to an SNS topic.
type SNSEventPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client awspkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, evt models.ImportCompletedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, body, map[string]string{
		"event_type": evt.Type,
		"module":     evt.Module,
	})
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventPublisher writes completion events keyed by module.
type KafkaEventPublisher struct {
	writer kafkaWriter
}

func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, evt models.ImportCompletedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(evt.Module), Value: data}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
