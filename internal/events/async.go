package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Async.Publish when the buffer has no room. The
// event is dropped.
var ErrQueueFull = errors.New("event queue full")

// ErrPublisherClosed is returned by Async.Publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

const defaultDeliverTimeout = 5 * time.Second

// Async hands events to a single background goroutine that forwards them to
// the wrapped Publisher in order. Publish never waits on the wrapped
// Publisher, so a slow or unreachable broker cannot hold up the caller.
type Async struct {
	next    Publisher
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewAsync starts the delivery goroutine. size is the number of events that
// may be waiting; values below 1 are treated as 1.
func NewAsync(next Publisher, size int, logger *slog.Logger) *Async {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		next:    next,
		logger:  logger,
		timeout: defaultDeliverTimeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, e); err != nil {
			a.logger.Warn("event delivery failed", "type", e.Type, "id", e.ID, "error", err)
		}
		cancel()
	}
}

// Publish queues e for delivery. It does not block.
func (a *Async) Publish(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}
	select {
	case a.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued events to be delivered and
// closes the wrapped Publisher.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
