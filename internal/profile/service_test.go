package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type storeStub struct {
	mu       sync.Mutex
	uploaded map[string]string
	removed  []string

	uploadErr error
	removeErr error
}

func newStoreStub() *storeStub {
	return &storeStub{uploaded: make(map[string]string)}
}

func (s *storeStub) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[key] = contentType
	return nil
}

func (s *storeStub) Remove(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	return nil
}

func (s *storeStub) PublicURL(key string) string {
	return "https://objects.test/avatars/" + key
}

func (s *storeStub) KeyFromURL(url string) (string, bool) {
	const prefix = "https://objects.test/avatars/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func newTestService(store *storeStub) (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, store, logger), repo
}

func TestSaveValidatesNames(t *testing.T) {
	svc, repo := newTestService(newStoreStub())
	userID := uuid.New()
	if err := repo.EnsureProfile(context.Background(), userID); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}

	if _, err := svc.Save(context.Background(), userID, "   ", "Doe"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty first name, got %v", err)
	}
	if _, err := svc.Save(context.Background(), userID, "Jane", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty last name, got %v", err)
	}

	p, err := svc.Save(context.Background(), userID, "  Jane ", " Doe ")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.FirstName == nil || *p.FirstName != "Jane" {
		t.Fatalf("expected trimmed first name Jane, got %v", p.FirstName)
	}
	if p.LastName == nil || *p.LastName != "Doe" {
		t.Fatalf("expected trimmed last name Doe, got %v", p.LastName)
	}
}

func TestSaveUnknownProfile(t *testing.T) {
	svc, _ := newTestService(newStoreStub())
	if _, err := svc.Save(context.Background(), uuid.New(), "Jane", "Doe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadAvatarStoresObjectAndURL(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	p, err := svc.UploadAvatar(context.Background(), userID, "me.PNG", "image/png", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if p.AvatarURL == nil {
		t.Fatal("expected avatar URL to be set")
	}
	if !strings.HasPrefix(*p.AvatarURL, "https://objects.test/avatars/users/"+userID.String()+"/") {
		t.Fatalf("unexpected avatar URL %q", *p.AvatarURL)
	}
	if !strings.HasSuffix(*p.AvatarURL, ".png") {
		t.Fatalf("expected lowercased extension, got %q", *p.AvatarURL)
	}
	if len(store.uploaded) != 1 {
		t.Fatalf("expected one uploaded object, got %d", len(store.uploaded))
	}
}

func TestUploadAvatarRejectsContentType(t *testing.T) {
	svc, repo := newTestService(newStoreStub())
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	if _, err := svc.UploadAvatar(context.Background(), userID, "a.txt", "text/plain", strings.NewReader("x")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadAvatarReplacesPreviousObject(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	first, err := svc.UploadAvatar(context.Background(), userID, "one.png", "image/png", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	oldKey, _ := store.KeyFromURL(*first.AvatarURL)

	second, err := svc.UploadAvatar(context.Background(), userID, "two.jpg", "image/jpeg", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if *second.AvatarURL == *first.AvatarURL {
		t.Fatal("expected a new avatar URL")
	}
	if len(store.removed) != 1 || store.removed[0] != oldKey {
		t.Fatalf("expected previous object %q removed, got %v", oldKey, store.removed)
	}
}

func TestUploadAvatarSurvivesOldObjectRemovalFailure(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	if _, err := svc.UploadAvatar(context.Background(), userID, "one.png", "image/png", strings.NewReader("a")); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	store.removeErr = errors.New("storage down")
	p, err := svc.UploadAvatar(context.Background(), userID, "two.png", "image/png", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("second upload should succeed despite removal failure, got %v", err)
	}
	if p.AvatarURL == nil {
		t.Fatal("expected avatar URL to be set")
	}
}

func TestRemoveAvatarClearsURL(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	uploaded, err := svc.UploadAvatar(context.Background(), userID, "one.png", "image/png", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	key, _ := store.KeyFromURL(*uploaded.AvatarURL)

	p, err := svc.RemoveAvatar(context.Background(), userID)
	if err != nil {
		t.Fatalf("RemoveAvatar: %v", err)
	}
	if p.AvatarURL != nil {
		t.Fatalf("expected cleared avatar URL, got %q", *p.AvatarURL)
	}
	if len(store.removed) != 1 || store.removed[0] != key {
		t.Fatalf("expected object %q removed, got %v", key, store.removed)
	}
}

func TestRemoveAvatarKeepsURLWhenStorageFails(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	if _, err := svc.UploadAvatar(context.Background(), userID, "one.png", "image/png", strings.NewReader("a")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	store.removeErr = errors.New("storage down")
	if _, err := svc.RemoveAvatar(context.Background(), userID); err == nil {
		t.Fatal("expected error when storage delete fails")
	}

	p, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.AvatarURL == nil {
		t.Fatal("avatar URL must survive a failed storage delete")
	}
}

func TestRemoveAvatarWithoutAvatarIsNoop(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	p, err := svc.RemoveAvatar(context.Background(), userID)
	if err != nil {
		t.Fatalf("RemoveAvatar: %v", err)
	}
	if p.AvatarURL != nil {
		t.Fatal("expected nil avatar URL")
	}
	if len(store.removed) != 0 {
		t.Fatalf("expected no storage deletes, got %v", store.removed)
	}
}

func TestAvatarOperationsAreExclusivePerUser(t *testing.T) {
	store := newStoreStub()
	svc, repo := newTestService(store)
	userID := uuid.New()
	repo.EnsureProfile(context.Background(), userID)

	if err := svc.acquire(userID); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := svc.UploadAvatar(context.Background(), userID, "a.png", "image/png", strings.NewReader("a")); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	svc.release(userID)

	if _, err := svc.UploadAvatar(context.Background(), userID, "a.png", "image/png", strings.NewReader("a")); err != nil {
		t.Fatalf("upload after release: %v", err)
	}
}
