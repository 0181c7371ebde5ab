package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

const (
	defaultQueueSize      = 1024
	defaultDeliverTimeout = 5 * time.Second
)

type dispatchJob struct {
	channel string
	key     string
	payload map[string]any
}

// Dispatcher decorates a Publisher with a bounded queue so publishing is
// fire-and-forget: Publish never blocks and never returns an error to the
// caller. When the queue is full the message is dropped and logged rather
// than applying backpressure to the saga. Close drains queued messages
// before returning.
type Dispatcher struct {
	inner   Publisher
	log     *slog.Logger
	queue   chan dispatchJob
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher logger. Nil loggers are ignored.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithQueueSize overrides the queue capacity. Non-positive values are ignored.
func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan dispatchJob, size)
		}
	}
}

// WithDeliverTimeout bounds each delivery attempt against the inner publisher.
func WithDeliverTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDispatcher wraps a Publisher in an asynchronous bounded-queue decorator
// and starts its delivery worker. Panics on a nil inner publisher.
func NewDispatcher(inner Publisher, opts ...DispatcherOption) *Dispatcher {
	if inner == nil {
		panic("notification: Publisher is required")
	}

	d := &Dispatcher{
		inner:   inner,
		log:     slog.Default(),
		queue:   make(chan dispatchJob, defaultQueueSize),
		timeout: defaultDeliverTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(1)
	go d.deliver()
	return d
}

// Publish enqueues a message for asynchronous delivery. It always returns
// nil: overflow and post-close publishes are logged and dropped.
func (d *Dispatcher) Publish(ctx context.Context, channel, key string, payload map[string]any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.WarnContext(ctx, "dropped message",
			slog.String("channel", channel),
			logger.Error(ErrClosed))
		return nil
	}

	select {
	case d.queue <- dispatchJob{channel: channel, key: key, payload: payload}:
	default:
		d.log.WarnContext(ctx, "dropped message",
			slog.String("channel", channel),
			slog.String("key", key),
			logger.Error(ErrQueueFull))
	}
	return nil
}

// Close stops accepting messages, drains the queue, and waits for in-flight
// deliveries to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) deliver() {
	defer d.wg.Done()

	for job := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.inner.Publish(ctx, job.channel, job.key, job.payload); err != nil {
			d.log.Error("failed to deliver message",
				slog.String("channel", job.channel),
				slog.String("key", job.key),
				logger.Error(err))
		}
		cancel()
	}
}
