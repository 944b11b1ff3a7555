// Package realtime fans admitted messages out to live subscribers.
package realtime

import (
	"log/slog"
	"sync"

	"chat-vault/domain"
)

// EventNewMessage is the event name carried by every broadcast frame.
const EventNewMessage = "new_message"

// Event is the wire representation pushed to subscribers.
type Event struct {
	Event string         `json:"event"`
	Data  domain.Message `json:"data"`
}

// Subscriber is one live connection to the hub. Events arrive on a buffered
// channel that the hub closes on unsubscribe.
type Subscriber struct {
	events chan Event
}

func (s *Subscriber) Events() <-chan Event { return s.events }

// Hub broadcasts a new_message event to every currently connected
// subscriber. Delivery is best-effort and fire-and-forget: no backlog, no
// replay, no per-subscriber acknowledgment. A subscriber that connects
// after Publish returns never sees that event.
//
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	log    *slog.Logger
}

func NewHub(log *slog.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{events: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug("subscriber connected", "subscribers", count)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Calling it
// twice, or with a subscriber from another hub, is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.events)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok {
		h.log.Debug("subscriber disconnected", "subscribers", count)
	}
}

// Publish delivers message to every subscriber registered at call time.
// Sends are non-blocking: a subscriber whose buffer is full loses the
// event rather than stalling the admission path or its peers.
func (h *Hub) Publish(message domain.Message) {
	event := Event{Event: EventNewMessage, Data: message}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.events <- event:
		default:
			h.log.Debug("subscriber buffer full, event dropped", "message_id", message.MessageID)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
