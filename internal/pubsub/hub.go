package pubsub

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Subscriber is one registered consumer of the derived-event stream.
type Subscriber struct {
	// C delivers events. Closed by Unsubscribe.
	C <-chan DbEvent

	id      uint64
	ch      chan DbEvent
	dropped atomic.Int64
}

// Dropped returns how many events were dropped because this subscriber's
// queue was full.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Hub fans derived events out to every subscriber. Publishing never blocks:
// a subscriber whose queue is full loses the event and has its drop counter
// incremented.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64

	published atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates a hub whose subscribers get queues of the given capacity.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		buffer: buffer,
		subs:   make(map[uint64]*Subscriber),
	}
}

// Subscribe registers a new consumer.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscriber{
		id: h.nextID,
		ch: make(chan DbEvent, h.buffer),
	}
	sub.C = sub.ch
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the consumer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Publish delivers the events to every subscriber, dropping per subscriber
// when a queue is full.
func (h *Hub) Publish(events []DbEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ev := range events {
		h.published.Add(1)
		for _, sub := range h.subs {
			select {
			case sub.ch <- ev:
			default:
				sub.dropped.Add(1)
				h.dropped.Add(1)
				h.logger.Warn("slow subscriber dropped event",
					"subscriber", sub.id, "event_type", ev.Type)
			}
		}
	}
}

// Published returns the total events published.
func (h *Hub) Published() int64 { return h.published.Load() }

// Dropped returns the total events dropped across all subscribers.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
