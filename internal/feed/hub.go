package feed

import (
	"context"
	"log/slog"
	"sync"

	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

// Filter selects the events a subscriber cares about.
type Filter func(models.CreationEvent) bool

// MineFilter matches events on creations authored by userID.
func MineFilter(userID string) Filter {
	return func(e models.CreationEvent) bool { return e.AuthorID == userID }
}

// PublishedFilter matches every event. Any change may add, drop or reorder
// an entry of the published list (publish, unpublish, delete, likes).
func PublishedFilter() Filter {
	return func(models.CreationEvent) bool { return true }
}

// Subscription receives matching events until closed.
type Subscription struct {
	C <-chan models.CreationEvent

	ch     chan models.CreationEvent
	filter Filter
	hub    *Hub
	id     uint64
	once   sync.Once
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

// Hub fans creation events out to live list subscribers in this process.
// Events are refresh signals: a subscriber whose buffer is full already has
// a refresh pending, so further events for it are dropped.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	logger *slog.Logger
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

var _ repositories.EventPublisher = (*Hub)(nil)

// Subscribe registers a subscriber.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	ch := make(chan models.CreationEvent, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &Subscription{C: ch, ch: ch, filter: filter, hub: h, id: h.nextID}
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers e to matching subscribers without blocking.
func (h *Hub) Publish(ctx context.Context, e models.CreationEvent) error {
	h.Dispatch(e)
	return nil
}

// Dispatch delivers e to matching subscribers. Used by the database listener.
func (h *Hub) Dispatch(e models.CreationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.logger.Debug("feed subscriber busy, event coalesced", "subscriber", sub.id, "creation_id", e.CreationID)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}
