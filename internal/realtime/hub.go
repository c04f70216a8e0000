package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"freightdeck/internal/platform/metrics"
)

// subscriberBuffer is the per-subscription channel depth. A subscriber that
// falls further behind than this loses events rather than stalling the feed.
const subscriberBuffer = 16

// Event is one row change from the database change feed.
type Event struct {
	Table   string          `json:"table"`
	ID      uuid.UUID       `json:"id"`
	OwnerID uuid.UUID       `json:"owner_id"`
	Op      string          `json:"op"`
	Row     json.RawMessage `json:"row"`
}

// Filter selects which events a subscription receives. Zero-value fields
// match everything.
type Filter struct {
	Table   string
	RowID   uuid.UUID
	OwnerID uuid.UUID
}

func (f Filter) matches(ev Event) bool {
	if f.Table != "" && ev.Table != f.Table {
		return false
	}
	if f.RowID != uuid.Nil && ev.ID != f.RowID {
		return false
	}
	if f.OwnerID != uuid.Nil && ev.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// Subscription is a registered consumer of filtered events.
type Subscription struct {
	C      chan Event
	filter Filter
}

// Hub fans change events out to filtered subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a consumer. The caller must Unsubscribe when done.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriberBuffer),
		filter: filter,
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the consumer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.C)
}

// Publish delivers the event to every matching subscriber. A subscriber with
// a full channel is skipped.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.filter.matches(ev) {
			continue
		}
		select {
		case sub.C <- ev:
			metrics.ChangeFeedEventsTotal.Inc()
		default:
			h.logger.Warn("dropping change event for slow subscriber",
				"table", ev.Table, "id", ev.ID)
		}
	}
}
