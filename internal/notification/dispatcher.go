package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher hands events to the broker without blocking the caller.
type Dispatcher interface {
	Enqueue(ctx context.Context, event Event)
}

type QueueDispatcher struct {
	publisher Publisher
	events    chan Event
	timeout   time.Duration
	log       *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	pubOnce sync.Once
	pubErr  error
}

// NewDispatcher starts a publishing goroutine fed by a buffer of size buffer.
// Call Close to drain it on shutdown.
func NewDispatcher(publisher Publisher, buffer int, log *zap.Logger) *QueueDispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &QueueDispatcher{
		publisher: publisher,
		events:    make(chan Event, buffer),
		timeout:   5 * time.Second,
		log:       log.With(zap.String("component", "dispatcher")),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue never blocks and never fails the caller. A full buffer or a closed
// dispatcher drops the event with an error log.
func (d *QueueDispatcher) Enqueue(_ context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Error("Notification dispatcher closed, event dropped",
			zap.String("routing_key", event.Key),
			zap.Any("payload", event.Payload),
		)
		return
	}

	select {
	case d.events <- event:
	default:
		d.log.Error("Notification buffer full, event dropped",
			zap.String("routing_key", event.Key),
			zap.Any("payload", event.Payload),
		)
	}
}

func (d *QueueDispatcher) run() {
	defer close(d.done)
	for event := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.publisher.PublishJSON(ctx, event.Key, event.Payload); err != nil {
			d.log.Error("Failed to publish notification",
				zap.Error(err),
				zap.String("routing_key", event.Key),
				zap.Any("payload", event.Payload),
			)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the buffer to drain or ctx to end.
// Events enqueued after Close are dropped.
func (d *QueueDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.pubOnce.Do(func() { d.pubErr = d.publisher.Close() })
		return d.pubErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
