package profile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository stores profiles in an in-process map, for local
// development and tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Profile
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[uuid.UUID]Profile)}
}

// Get retrieves a profile by user ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.data[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// EnsureProfile creates an empty profile row for the user if none exists.
func (r *InMemoryRepository) EnsureProfile(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		r.data[id] = Profile{ID: id, UpdatedAt: time.Now().UTC()}
	}
	return nil
}

// UpdateNames stores the name fields.
func (r *InMemoryRepository) UpdateNames(_ context.Context, id uuid.UUID, firstName, lastName string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.data[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p.FirstName = &firstName
	p.LastName = &lastName
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return p, nil
}

// UpdateAvatarURL stores the avatar URL; nil clears it.
func (r *InMemoryRepository) UpdateAvatarURL(_ context.Context, id uuid.UUID, url *string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.data[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p.AvatarURL = url
	p.UpdatedAt = time.Now().UTC()
	r.data[id] = p
	return p, nil
}
