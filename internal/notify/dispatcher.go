package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "gatepass/pkg/domain"
	"gatepass/pkg/requestcontext"
)

const (
	targetTopic = "topic"
	targetUser  = "user"
)

type job struct {
	ctx    context.Context
	target string
	topic  string
	userID id.UserID
	msg    Message
}

// Dispatcher decouples callers from sink latency. Notify and NotifyUser
// enqueue and return immediately; a fixed pool of workers delivers. A full
// queue drops the message. Sink errors are logged and counted, never
// returned.
type Dispatcher struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics

	queueSize   int
	workers     int
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithQueueSize bounds the number of pending notifications.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSendTimeout bounds each sink call.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// NewDispatcher starts the worker pool. Call Close to drain it.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:        sink,
		logger:      slog.Default(),
		queueSize:   256,
		workers:     2,
		sendTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan job, d.queueSize)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

// Notify queues msg for every subscriber of topic.
func (d *Dispatcher) Notify(ctx context.Context, topic string, msg Message) {
	d.enqueue(job{ctx: ctx, target: targetTopic, topic: topic, msg: msg})
}

// NotifyUser queues msg for one user.
func (d *Dispatcher) NotifyUser(ctx context.Context, userID id.UserID, msg Message) {
	d.enqueue(job{ctx: ctx, target: targetUser, userID: userID, msg: msg})
}

func (d *Dispatcher) enqueue(j job) {
	// Keep request-scoped values for logging but not the request's deadline.
	j.ctx = context.WithoutCancel(j.ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(j, "dispatcher closed")
		return
	}
	select {
	case d.queue <- j:
		d.metrics.setQueueLen(len(d.queue))
	default:
		d.drop(j, "queue full")
	}
}

func (d *Dispatcher) drop(j job, reason string) {
	d.metrics.incDropped()
	d.logger.WarnContext(j.ctx, "notification dropped",
		"request_id", requestcontext.RequestID(j.ctx),
		"reason", reason,
		"target", j.target,
		"topic", j.topic,
		"title", j.msg.Title,
	)
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.queue {
		d.metrics.setQueueLen(len(d.queue))
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.sendTimeout)
	defer cancel()

	var err error
	switch j.target {
	case targetUser:
		err = d.sink.PublishUser(ctx, j.userID, j.msg)
	default:
		err = d.sink.PublishTopic(ctx, j.topic, j.msg)
	}
	if err != nil {
		d.metrics.incFailed(j.target)
		d.logger.ErrorContext(ctx, "notification delivery failed",
			"request_id", requestcontext.RequestID(ctx),
			"target", j.target,
			"topic", j.topic,
			"title", j.msg.Title,
			"error", err,
		)
		return
	}
	d.metrics.incDelivered(j.target)
}

// Close stops accepting work and waits for queued notifications to be
// delivered, or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
