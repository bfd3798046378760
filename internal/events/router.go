package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// Router fans events out from the controller to every subscriber. A slow
// subscriber loses events instead of stalling the timer.
type Router struct {
	subscribers []chan Event
	bufferSize  int
	logger      *slog.Logger
	dropped     atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger used to report dropped events.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router. If bufferSize is 0 or negative,
// DefaultBufferSize is used.
func NewRouter(bufferSize int, opts ...RouterOption) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &Router{
		bufferSize: bufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit publishes an event to all subscribers without blocking. Emit is safe
// to call concurrently and after Close, where it does nothing.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			r.dropped.Add(1)
			r.logger.Warn("event dropped: subscriber channel full",
				"event_type", event.Type(),
				"source", event.Source(),
			)
		}
	}
}

// Subscribe returns a channel with the router's default buffer size. The
// channel is closed by Unsubscribe or Close.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeBuffered(r.bufferSize)
}

// SubscribeBuffered returns a channel with the given buffer size, for
// consumers such as the TUI that must not miss ticks.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, size)
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown or
// already removed channels are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Router) Subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was
// full.
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}

// Close closes every subscriber channel. Later Emit calls do nothing and
// later Subscribe calls return closed channels. Close is idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}
