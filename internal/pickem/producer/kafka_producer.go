package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	sharedkafka "github.com/radieske/pickem-platform-poc/internal/shared/kafka"
	"github.com/radieske/pickem-platform-poc/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *kafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishPickSettled(ctx context.Context, e events.PickSettled) error {
	b, _ := json.Marshal(e)
	return sharedkafka.WriteJSON(ctx, p.Writer, e.PickID, b)
}
