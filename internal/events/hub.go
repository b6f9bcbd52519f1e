package events

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrHubClosed is returned by Publish after Close.
var ErrHubClosed = errors.New("event hub closed")

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscription receives the events of one room, or of every room when its
// room ID is empty.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	roomID string
	hub    *Hub
	once   sync.Once
}

// Subscribe registers a subscriber for roomID ("" for all rooms).
// A subscription on a closed hub is returned already closed.
func (h *Hub) Subscribe(roomID string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, roomID: roomID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		sub.once.Do(func() {})
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every matching subscriber that has buffer space.
func (h *Hub) Publish(ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	h.published.Add(1)
	for sub := range h.subs {
		if sub.roomID != "" && sub.roomID != ev.RoomID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Published returns the number of events accepted by Publish.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

// Dropped returns the number of deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close closes every subscription. Later Publish calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}
