package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	id "gatepass/pkg/domain"
)

// KafkaProducer is the subset of *kgo.Client the sink needs.
type KafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// kafkaEnvelope is the record value. Exactly one of Topic and UserID is set.
type kafkaEnvelope struct {
	Topic  string `json:"topic,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Message
}

// KafkaSink writes notifications to one Kafka topic, keyed by notification
// topic (or user) so each audience keeps its order within a partition.
type KafkaSink struct {
	producer KafkaProducer
	topic    string
}

func NewKafkaSink(producer KafkaProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) PublishTopic(ctx context.Context, topic string, msg Message) error {
	return s.produce(ctx, "topic:"+topic, kafkaEnvelope{Topic: topic, Message: msg})
}

func (s *KafkaSink) PublishUser(ctx context.Context, userID id.UserID, msg Message) error {
	return s.produce(ctx, "user:"+userID.String(), kafkaEnvelope{UserID: userID.String(), Message: msg})
}

func (s *KafkaSink) produce(ctx context.Context, key string, env kafkaEnvelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}
