//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"gatepass/internal/notify"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/kafka"
	"gatepass/pkg/testutil/containers"
)

type SinksSuite struct {
	suite.Suite
}

func TestSinksSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinksSuite))
}

func (s *SinksSuite) TestRedisSinkPublishes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rc := containers.GetManager().GetRedis(s.T())
	sink := notify.NewRedisSink(rc.Client)

	sub := rc.Client.Subscribe(ctx, sink.TopicChannel(notify.TopicGuards))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	s.Require().NoError(err)

	s.Require().NoError(sink.PublishTopic(ctx, notify.TopicGuards, notify.Message{
		Title: "New Visitor",
		Body:  "Ramesh Kumar is pending approval at Asha's home",
	}))

	msg, err := sub.ReceiveMessage(ctx)
	s.Require().NoError(err)
	var got notify.Message
	s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &got))
	s.Equal("New Visitor", got.Title)
}

func (s *SinksSuite) TestKafkaSinkProduces() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rp := containers.GetManager().GetRedpanda(s.T())
	cfg := config.KafkaConfig{Brokers: rp.Brokers, Topic: "gatepass.notifications.test", Partitions: 1}
	client, err := kafka.New(ctx, cfg)
	s.Require().NoError(err)
	defer client.Close()

	// A second bootstrap is a no-op.
	s.Require().NoError(kafka.EnsureTopic(ctx, client.Client, cfg.Topic, 1))

	sink := notify.NewKafkaSink(client, client.Topic())
	s.Require().NoError(sink.PublishTopic(ctx, "household_abc", notify.Message{Title: "Visitor Checked In"}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 && ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		records = append(records, fetches.Records()...)
	}
	s.Require().NotEmpty(records)
	s.Equal("topic:household_abc", string(records[0].Key))
	s.Contains(string(records[0].Value), "Visitor Checked In")
}
