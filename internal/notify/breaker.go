package notify

import (
	"context"
	"sync"
	"time"

	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

// BreakerSink stops calling a failing sink for a cooldown period after
// threshold consecutive failures, so a broker outage does not tie up the
// dispatcher workers on timeouts. While open it returns ErrUnavailable.
type BreakerSink struct {
	next Sink
	now  func() time.Time

	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
}

func NewBreakerSink(next Sink, threshold int, cooldown time.Duration) *BreakerSink {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &BreakerSink{next: next, now: time.Now, threshold: threshold, cooldown: cooldown}
}

func (b *BreakerSink) PublishTopic(ctx context.Context, topic string, msg Message) error {
	return b.call(func() error { return b.next.PublishTopic(ctx, topic, msg) })
}

func (b *BreakerSink) PublishUser(ctx context.Context, userID id.UserID, msg Message) error {
	return b.call(func() error { return b.next.PublishUser(ctx, userID, msg) })
}

// IsOpen reports whether calls are currently short-circuited.
func (b *BreakerSink) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.openUntil)
}

func (b *BreakerSink) call(fn func() error) error {
	if !b.allow() {
		return sentinel.ErrUnavailable
	}
	err := fn()
	b.record(err)
	return err
}

// allow admits calls while closed and one probe once the cooldown expires.
func (b *BreakerSink) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openUntil.IsZero() {
		return true
	}
	if b.now().Before(b.openUntil) {
		return false
	}
	// Half-open: a single failure reopens immediately.
	b.openUntil = time.Time{}
	b.failures = b.threshold - 1
	return true
}

func (b *BreakerSink) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.openUntil = time.Time{}
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
	}
}
