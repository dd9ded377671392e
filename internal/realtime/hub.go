// Package realtime fans out leaderboard updates to websocket subscribers.
package realtime

import (
	"sync"
	"time"

	"github.com/wonny/tradingquiz/pkg/logger"
)

// SubscriberBuffer is the per-subscriber queue length. A subscriber whose
// queue is full is dropped.
const SubscriberBuffer = 8

// Subscriber receives events until its channel is closed.
type Subscriber struct {
	ch chan Event
}

// Events returns the receive side of the subscription.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub is a non-blocking broadcaster
// ⭐ SSOT: realtime fan-out lives here only
type Hub struct {
	logger *logger.Logger

	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
	last   *Event
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a subscriber. The latest event, if any, is delivered
// first so new clients start with a snapshot.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, SubscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub
	}
	if h.last != nil {
		sub.ch <- *h.last
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(typ EventType, data interface{}) {
	ev := Event{Type: typ, Data: data, Timestamp: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.last = &ev

	dropped := 0
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(h.subs, sub)
			close(sub.ch)
			dropped++
		}
	}

	if dropped > 0 {
		h.logger.WithFields(map[string]interface{}{
			"event":   string(typ),
			"dropped": dropped,
		}).Warn("Dropped slow realtime subscribers")
	}
}

// Len returns the number of active subscribers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
