package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"freightdeck/internal/profile"
)

// PublishingProfileRepository decorates a profile repository so writes emit
// change events. The Postgres store emits these from schema triggers instead,
// so this wrapper is wired only for the in-memory store.
type PublishingProfileRepository struct {
	profile.Repository
	hub *Hub
}

// NewPublishingProfileRepository wraps the repository.
func NewPublishingProfileRepository(repo profile.Repository, hub *Hub) *PublishingProfileRepository {
	return &PublishingProfileRepository{Repository: repo, hub: hub}
}

// UpdateNames stores the names and publishes the updated row.
func (r *PublishingProfileRepository) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) (profile.Profile, error) {
	p, err := r.Repository.UpdateNames(ctx, id, firstName, lastName)
	if err != nil {
		return p, err
	}
	r.publish(p)
	return p, nil
}

// UpdateAvatarURL stores the avatar URL and publishes the updated row.
func (r *PublishingProfileRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url *string) (profile.Profile, error) {
	p, err := r.Repository.UpdateAvatarURL(ctx, id, url)
	if err != nil {
		return p, err
	}
	r.publish(p)
	return p, nil
}

func (r *PublishingProfileRepository) publish(p profile.Profile) {
	row, err := json.Marshal(p)
	if err != nil {
		return
	}
	r.hub.Publish(Event{
		Table: "profiles",
		ID:    p.ID,
		Op:    "UPDATE",
		Row:   row,
	})
}
