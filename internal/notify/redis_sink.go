package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "gatepass/pkg/domain"
)

// RedisPublisher is the subset of *redis.Client the sink needs.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes JSON messages on Redis pub/sub channels
// "notify:<topic>" and "notify:user:<id>".
type RedisSink struct {
	client RedisPublisher
	prefix string
}

func NewRedisSink(client RedisPublisher) *RedisSink {
	return &RedisSink{client: client, prefix: "notify:"}
}

// TopicChannel is the Redis channel carrying topic.
func (s *RedisSink) TopicChannel(topic string) string {
	return s.prefix + topic
}

// UserChannel is the Redis channel carrying messages for one user.
func (s *RedisSink) UserChannel(userID id.UserID) string {
	return s.prefix + "user:" + userID.String()
}

func (s *RedisSink) PublishTopic(ctx context.Context, topic string, msg Message) error {
	return s.publish(ctx, s.TopicChannel(topic), msg)
}

func (s *RedisSink) PublishUser(ctx context.Context, userID id.UserID, msg Message) error {
	return s.publish(ctx, s.UserChannel(userID), msg)
}

func (s *RedisSink) publish(ctx context.Context, channel string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}
