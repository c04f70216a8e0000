package shipments

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores shipments in an in-process map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]Shipment
	order []uuid.UUID
}

// NewInMemoryRepository constructs a repository seeded with optional initial shipments.
func NewInMemoryRepository(initial []Shipment) *InMemoryRepository {
	data := make(map[uuid.UUID]Shipment)
	order := make([]uuid.UUID, 0, len(initial))
	for _, s := range initial {
		data[s.ID] = s
		order = append(order, s.ID)
	}
	return &InMemoryRepository{data: data, order: order}
}

// Create stores a new shipment.
func (r *InMemoryRepository) Create(_ context.Context, shipment Shipment) (Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[shipment.ID] = shipment
	r.order = append(r.order, shipment.ID)
	return shipment, nil
}

// Get returns a shipment by ID and owner.
func (r *InMemoryRepository) Get(_ context.Context, id, ownerID uuid.UUID) (Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	shipment, ok := r.data[id]
	if !ok || shipment.OwnerID != ownerID {
		return Shipment{}, ErrNotFound
	}
	return shipment, nil
}

// List returns one page of matching shipments plus the total match count.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]Shipment, int, error) {
	r.mu.RLock()
	matched := r.matchLocked(opts.OwnerID, opts.Status, opts.Query)
	r.mu.RUnlock()

	sortByCreatedDesc(matched)

	total := len(matched)
	page := opts.Page
	if page < 1 {
		page = 1
	}
	from := (page - 1) * PageSize
	if from >= total {
		return []Shipment{}, total, nil
	}
	to := from + PageSize
	if to > total {
		to = total
	}
	return matched[from:to], total, nil
}

// ListAll returns every shipment for the owner, newest first.
func (r *InMemoryRepository) ListAll(_ context.Context, ownerID uuid.UUID) ([]Shipment, error) {
	r.mu.RLock()
	matched := r.matchLocked(ownerID, nil, "")
	r.mu.RUnlock()

	sortByCreatedDesc(matched)
	return matched, nil
}

// Update replaces an existing shipment scoped to its owner.
func (r *InMemoryRepository) Update(_ context.Context, shipment Shipment) (Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[shipment.ID]
	if !ok || existing.OwnerID != shipment.OwnerID {
		return Shipment{}, ErrNotFound
	}
	r.data[shipment.ID] = shipment
	return shipment, nil
}

// Delete removes a shipment by ID and owner.
func (r *InMemoryRepository) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[id]
	if !ok || existing.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existingID := range r.order {
		if existingID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Recent returns the owner's newest shipments up to limit.
func (r *InMemoryRepository) Recent(_ context.Context, ownerID uuid.UUID, limit int) ([]Shipment, error) {
	r.mu.RLock()
	matched := r.matchLocked(ownerID, nil, "")
	r.mu.RUnlock()

	sortByCreatedDesc(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// StatusValues returns the owner's statuses in creation order.
func (r *InMemoryRepository) StatusValues(_ context.Context, ownerID uuid.UUID) ([]Status, error) {
	r.mu.RLock()
	matched := r.matchLocked(ownerID, nil, "")
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	values := make([]Status, 0, len(matched))
	for _, s := range matched {
		values = append(values, s.Status)
	}
	return values, nil
}

func (r *InMemoryRepository) matchLocked(ownerID uuid.UUID, status *Status, query string) []Shipment {
	matched := make([]Shipment, 0, len(r.order))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, id := range r.order {
		s, ok := r.data[id]
		if !ok || s.OwnerID != ownerID {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		if needle != "" && !matchesQuery(s, needle) {
			continue
		}
		matched = append(matched, s)
	}
	return matched
}

func matchesQuery(s Shipment, needle string) bool {
	if strings.Contains(strings.ToLower(s.Origin), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Destination), needle) {
		return true
	}
	if s.TrackingNumber != nil && strings.Contains(strings.ToLower(*s.TrackingNumber), needle) {
		return true
	}
	return false
}

func sortByCreatedDesc(items []Shipment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
