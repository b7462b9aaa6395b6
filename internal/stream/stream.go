package stream

import (
	"context"
	"sync"

	"estatehub.app/internal/estate"
)

// bufferSize bounds how far a subscriber may fall behind before events drop.
const bufferSize = 16

type subscriber struct {
	userID string
	ch     chan estate.Notification
}

// Hub fans notifications out to the live subscribers of their recipient.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

var _ estate.NotificationPublisher = (*Hub)(nil)

func New() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for userID. The channel is closed when
// ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID string) <-chan estate.Notification {
	ch := make(chan estate.Notification, bufferSize)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscriber{userID: userID, ch: ch}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// PublishNotification delivers n to every subscriber of n.UserID without
// blocking.
func (h *Hub) PublishNotification(n estate.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.userID != n.UserID {
			continue
		}
		select {
		case s.ch <- n:
		default:
			// Slow subscriber; it can catch up through the list endpoint.
		}
	}
}

// Subscribers reports how many streams are open for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.subs {
		if s.userID == userID {
			n++
		}
	}
	return n
}
