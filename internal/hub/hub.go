package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

// Hub maintains the set of connected live-update subscribers and delivers
// change events to all of them. It is safe for concurrent use from any
// goroutine; Broadcast never blocks on a slow subscriber and never reports
// delivery failures to the publisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
	capacity    int
	clock       clockwork.Clock
}

// New creates a hub whose subscribers each get a bounded inbox of the given
// capacity.
func New(capacity int, clock clockwork.Clock) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]*Subscriber),
		capacity:    capacity,
		clock:       clock,
	}
}

// Subscribe allocates a new subscriber and registers it. It always succeeds.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		id:    uuid.New(),
		inbox: make(chan []byte, h.capacity),
		clock: h.clock,
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	h.subscribers[s.id] = s
	total := len(h.subscribers)
	h.mu.Unlock()

	metrics.HubSubscribers.Set(float64(total))
	slog.Debug("Subscriber registered", "subscriber_id", s.id.String(), "total", total)
	return s
}

// Unsubscribe removes the subscriber from the set. Removing an already
// absent subscriber is a no-op, so every transport exit path may call it.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}

	h.mu.Lock()
	_, present := h.subscribers[s.id]
	delete(h.subscribers, s.id)
	total := len(h.subscribers)
	h.mu.Unlock()

	if !present {
		return
	}

	s.close()
	metrics.HubSubscribers.Set(float64(total))
	slog.Debug("Subscriber removed", "subscriber_id", s.id.String(), "total", total)
}

// Broadcast serializes the event once and enqueues it on every subscriber's
// inbox. The subscriber set is snapshotted under the lock and the lock is
// released before any enqueue, so a slow subscriber never stalls another.
func (h *Hub) Broadcast(event domain.ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		// Contained: a serialization failure must never reach the mutation path.
		slog.Error("Failed to marshal change event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	metrics.HubEventsPublishedTotal.Inc()
	for _, s := range targets {
		s.offer(payload)
	}
}

// Publish implements domain.EventPublisher.
func (h *Hub) Publish(event domain.ChangeEvent) {
	h.Broadcast(event)
}

// SubscriberCount returns the current size of the subscriber set.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Stop removes every subscriber, waking their delivery loops. Broadcasts
// after Stop go nowhere but remain safe.
func (h *Hub) Stop() {
	h.mu.Lock()
	removed := make([]*Subscriber, 0, len(h.subscribers))
	for id, s := range h.subscribers {
		removed = append(removed, s)
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	for _, s := range removed {
		s.close()
	}
	metrics.HubSubscribers.Set(0)
	slog.Info("Hub stopped", "disconnected_subscribers", len(removed))
}
