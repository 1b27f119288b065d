package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

type delivery struct {
	topic  string
	userID id.UserID
	msg    Message
}

// recordingSink captures deliveries. When gate is set every call blocks on
// it after signalling started.
type recordingSink struct {
	mu      sync.Mutex
	got     []delivery
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (s *recordingSink) wait() {
	if s.gate == nil {
		return
	}
	s.started <- struct{}{}
	<-s.gate
}

func (s *recordingSink) PublishTopic(_ context.Context, topic string, msg Message) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, delivery{topic: topic, msg: msg})
	return s.err
}

func (s *recordingSink) PublishUser(_ context.Context, userID id.UserID, msg Message) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, delivery{userID: userID, msg: msg})
	return s.err
}

func (s *recordingSink) deliveries() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.got...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHouseholdTopic(t *testing.T) {
	h := id.HouseholdID(uuid.MustParse("3f1c2a9e-0000-4000-8000-000000000001"))
	assert.Equal(t, "household_3f1c2a9e-0000-4000-8000-000000000001", HouseholdTopic(h))
}

func TestDispatcher(t *testing.T) {
	t.Run("delivers queued messages before close returns", func(t *testing.T) {
		sink := &recordingSink{}
		d := NewDispatcher(sink, WithLogger(quietLogger()), WithWorkers(3))
		user := id.UserID(uuid.New())

		for i := 0; i < 10; i++ {
			d.Notify(context.Background(), TopicGuards, Message{Title: "New Visitor"})
		}
		d.NotifyUser(context.Background(), user, Message{Title: "Visitor Approved"})
		require.NoError(t, d.Close(context.Background()))

		got := sink.deliveries()
		assert.Len(t, got, 11)
		var users int
		for _, g := range got {
			if g.userID == user {
				users++
			}
		}
		assert.Equal(t, 1, users)
	})

	t.Run("full queue drops without blocking", func(t *testing.T) {
		sink := &recordingSink{gate: make(chan struct{}), started: make(chan struct{}, 1)}
		d := NewDispatcher(sink, WithLogger(quietLogger()), WithWorkers(1), WithQueueSize(1))

		d.Notify(context.Background(), TopicGuards, Message{Title: "first"})
		<-sink.started // the only worker is now busy
		d.Notify(context.Background(), TopicGuards, Message{Title: "second"})

		done := make(chan struct{})
		go func() {
			d.Notify(context.Background(), TopicGuards, Message{Title: "third"})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Notify blocked on a full queue")
		}

		go func() {
			for range sink.started {
			}
		}()
		close(sink.gate)
		require.NoError(t, d.Close(context.Background()))
		close(sink.started)

		titles := make([]string, 0, 2)
		for _, g := range sink.deliveries() {
			titles = append(titles, g.msg.Title)
		}
		assert.ElementsMatch(t, []string{"first", "second"}, titles)
	})

	t.Run("sink errors are swallowed", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker down")}
		d := NewDispatcher(sink, WithLogger(quietLogger()))
		d.Notify(context.Background(), TopicGuards, Message{Title: "x"})
		require.NoError(t, d.Close(context.Background()))
		assert.Len(t, sink.deliveries(), 1)
	})

	t.Run("cancelled request context does not cancel delivery", func(t *testing.T) {
		sink := &recordingSink{}
		d := NewDispatcher(sink, WithLogger(quietLogger()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.Notify(ctx, TopicGuards, Message{Title: "late"})
		require.NoError(t, d.Close(context.Background()))
		assert.Len(t, sink.deliveries(), 1)
	})

	t.Run("notify after close is dropped", func(t *testing.T) {
		sink := &recordingSink{}
		d := NewDispatcher(sink, WithLogger(quietLogger()))
		require.NoError(t, d.Close(context.Background()))
		require.NoError(t, d.Close(context.Background()))
		d.Notify(context.Background(), TopicGuards, Message{Title: "ignored"})
		assert.Empty(t, sink.deliveries())
	})
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("nope")}
	m := MultiSink{failing, ok}

	err := m.PublishTopic(context.Background(), TopicGuards, Message{Title: "t"})
	require.Error(t, err)
	assert.Len(t, ok.deliveries(), 1, "a failing sink does not starve the others")
	assert.Len(t, failing.deliveries(), 1)
}

func TestBreakerSink(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &recordingSink{err: errors.New("timeout")}
	b := NewBreakerSink(inner, 2, time.Minute)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, b.PublishTopic(ctx, TopicGuards, Message{}))
	require.Error(t, b.PublishTopic(ctx, TopicGuards, Message{}))
	assert.True(t, b.IsOpen())

	err := b.PublishTopic(ctx, TopicGuards, Message{})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Len(t, inner.deliveries(), 2, "open breaker skips the sink")

	now = now.Add(2 * time.Minute)
	inner.err = nil
	require.NoError(t, b.PublishUser(ctx, id.UserID(uuid.New()), Message{}))
	assert.False(t, b.IsOpen())

	inner.err = errors.New("again")
	require.Error(t, b.PublishTopic(ctx, TopicGuards, Message{}))
	assert.False(t, b.IsOpen(), "one failure after recovery stays closed")
}

func TestBreakerSinkHalfOpenProbe(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := &recordingSink{err: errors.New("timeout")}
	b := NewBreakerSink(inner, 3, time.Minute)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = b.PublishTopic(ctx, TopicGuards, Message{})
	}
	require.True(t, b.IsOpen())

	now = now.Add(61 * time.Second)
	require.Error(t, b.PublishTopic(ctx, TopicGuards, Message{}))
	assert.True(t, b.IsOpen(), "failed probe reopens the breaker")
}

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisSink(t *testing.T) {
	fake := &fakeRedis{}
	sink := NewRedisSink(fake)

	require.NoError(t, sink.PublishTopic(context.Background(), TopicGuards, Message{Title: "New Visitor", Body: "Ramesh is pending"}))
	assert.Equal(t, "notify:guards", fake.channel)
	assert.JSONEq(t, `{"title":"New Visitor","body":"Ramesh is pending"}`, string(fake.payload))

	user := id.UserID(uuid.New())
	require.NoError(t, sink.PublishUser(context.Background(), user, Message{Title: "hi"}))
	assert.Equal(t, "notify:user:"+user.String(), fake.channel)

	fake.err = errors.New("connection refused")
	assert.Error(t, sink.PublishTopic(context.Background(), TopicGuards, Message{}))
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestKafkaSink(t *testing.T) {
	fake := &fakeProducer{}
	sink := NewKafkaSink(fake, "gatepass.notifications")

	require.NoError(t, sink.PublishTopic(context.Background(), "household_x", Message{Title: "Visitor Checked In"}))
	require.Len(t, fake.records, 1)
	rec := fake.records[0]
	assert.Equal(t, "gatepass.notifications", rec.Topic)
	assert.Equal(t, "topic:household_x", string(rec.Key))
	assert.JSONEq(t, `{"topic":"household_x","title":"Visitor Checked In","body":""}`, string(rec.Value))

	fake.err = errors.New("not leader")
	assert.Error(t, sink.PublishUser(context.Background(), id.UserID(uuid.New()), Message{}))
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(quietLogger())
	assert.NoError(t, sink.PublishTopic(context.Background(), TopicGuards, Message{Title: "t"}))
	assert.NoError(t, sink.PublishUser(context.Background(), id.UserID(uuid.New()), Message{Title: "t"}))
}
