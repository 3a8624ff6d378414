package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"attune/internal/nudge"
)

// EventType names an observable engine occurrence.
type EventType string

const (
	EventScheduled EventType = "scheduled"
	EventDelivered EventType = "delivered"
	EventResponded EventType = "responded"
)

// Event describes one scheduling, delivery, or response occurrence.
type Event struct {
	ID             string
	Type           EventType
	At             time.Time
	NotificationID int64
	TemplateID     string
	Window         nudge.Window
	Action         nudge.Action
}

// eventHub fans engine events out to subscribers. Sends never block: a
// subscriber that stops draining loses events rather than stalling delivery.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
	closed      bool
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[string]chan Event)}
}

// Subscribe registers an event channel. The returned cancel func must be
// called when the subscriber is done.
func (h *eventHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := uuid.NewString()
	h.subscribers[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}
}

func (h *eventHub) emit(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Subscribe delivers engine events until cancelled. Events may be dropped
// for a slow subscriber.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.subscribe()
}
