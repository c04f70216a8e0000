package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"freightdeck/internal/platform/storage"
)

// allowedAvatarTypes lists the content types accepted for avatar uploads.
var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const maxAvatarBytes = 5 << 20

// Service implements profile business logic on top of a Repository and an
// object store for avatars.
type Service struct {
	repo   Repository
	store  storage.ObjectStore
	logger *slog.Logger

	mu   sync.Mutex
	busy map[uuid.UUID]bool
}

// NewService constructs a Service.
func NewService(repo Repository, store storage.ObjectStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		logger: logger,
		busy:   make(map[uuid.UUID]bool),
	}
}

// Get returns the user's profile.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, userID)
}

// EnsureProfile creates an empty profile for the user if none exists. It lets
// the service satisfy the auth package's provisioning hook.
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID) error {
	return s.repo.EnsureProfile(ctx, userID)
}

// Save validates and stores the name fields, returning the stored profile.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, firstName, lastName string) (Profile, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return Profile{}, &ValidationError{Message: "first name is required"}
	}
	if lastName == "" {
		return Profile{}, &ValidationError{Message: "last name is required"}
	}
	return s.repo.UpdateNames(ctx, userID, firstName, lastName)
}

// UploadAvatar stores a new avatar object, points the profile at it and
// removes the previous object on a best-effort basis. Only one avatar
// operation may run per user at a time.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (Profile, error) {
	if !allowedAvatarTypes[contentType] {
		return Profile{}, &ValidationError{Message: fmt.Sprintf("unsupported avatar content type %q", contentType)}
	}
	if err := s.acquire(userID); err != nil {
		return Profile{}, err
	}
	defer s.release(userID)

	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	key := storage.AvatarKey(userID, filename)
	if err := s.store.Upload(ctx, key, contentType, io.LimitReader(body, maxAvatarBytes)); err != nil {
		return Profile{}, fmt.Errorf("upload avatar: %w", err)
	}

	url := s.store.PublicURL(key)
	updated, err := s.repo.UpdateAvatarURL(ctx, userID, &url)
	if err != nil {
		// The profile no longer points at the fresh object, so discard it.
		if removeErr := s.store.Remove(ctx, key); removeErr != nil {
			s.logger.Warn("failed to remove orphaned avatar object", "key", key, "error", removeErr)
		}
		return Profile{}, err
	}

	if current.AvatarURL != nil {
		if oldKey, ok := s.store.KeyFromURL(*current.AvatarURL); ok {
			if err := s.store.Remove(ctx, oldKey); err != nil {
				s.logger.Warn("failed to remove previous avatar object", "key", oldKey, "error", err)
			}
		}
	}
	return updated, nil
}

// RemoveAvatar deletes the stored avatar object and clears the profile's
// avatar URL. When the storage delete fails the URL is left untouched so the
// profile never references an object whose fate is unknown.
func (s *Service) RemoveAvatar(ctx context.Context, userID uuid.UUID) (Profile, error) {
	if err := s.acquire(userID); err != nil {
		return Profile{}, err
	}
	defer s.release(userID)

	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if current.AvatarURL == nil {
		return current, nil
	}

	if key, ok := s.store.KeyFromURL(*current.AvatarURL); ok {
		if err := s.store.Remove(ctx, key); err != nil {
			return Profile{}, fmt.Errorf("remove avatar object: %w", err)
		}
	}
	return s.repo.UpdateAvatarURL(ctx, userID, nil)
}

func (s *Service) acquire(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[userID] {
		return ErrBusy
	}
	s.busy[userID] = true
	return nil
}

func (s *Service) release(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.busy, userID)
	s.mu.Unlock()
}
