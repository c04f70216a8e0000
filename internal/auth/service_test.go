package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type repoStub struct {
	findUserByOAuth       func(ctx context.Context, provider, providerID string) (*User, error)
	createUser            func(ctx context.Context, user User) (User, error)
	updateUserLogin       func(ctx context.Context, id uuid.UUID, name string) error
	createSession         func(ctx context.Context, session Session, tokenHash string) error
	findSessionByHash     func(ctx context.Context, tokenHash string) (*Session, *User, error)
	deleteSession         func(ctx context.Context, id uuid.UUID) error
	deleteExpiredSessions func(ctx context.Context) (int64, error)
}

func (r *repoStub) FindUserByOAuth(ctx context.Context, provider, providerID string) (*User, error) {
	if r.findUserByOAuth != nil {
		return r.findUserByOAuth(ctx, provider, providerID)
	}
	return nil, nil
}

func (r *repoStub) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return nil, nil
}

func (r *repoStub) CreateUser(ctx context.Context, user User) (User, error) {
	if r.createUser != nil {
		return r.createUser(ctx, user)
	}
	return user, nil
}

func (r *repoStub) UpdateUserLogin(ctx context.Context, id uuid.UUID, name string) error {
	if r.updateUserLogin != nil {
		return r.updateUserLogin(ctx, id, name)
	}
	return nil
}

func (r *repoStub) CreateSession(ctx context.Context, session Session, tokenHash string) error {
	if r.createSession != nil {
		return r.createSession(ctx, session, tokenHash)
	}
	return nil
}

func (r *repoStub) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, *User, error) {
	if r.findSessionByHash != nil {
		return r.findSessionByHash(ctx, tokenHash)
	}
	return nil, nil, nil
}

func (r *repoStub) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if r.deleteSession != nil {
		return r.deleteSession(ctx, id)
	}
	return nil
}

func (r *repoStub) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	if r.deleteExpiredSessions != nil {
		return r.deleteExpiredSessions(ctx)
	}
	return 0, nil
}

type provisionerStub struct {
	calls []uuid.UUID
	err   error
}

func (p *provisionerStub) EnsureProfile(_ context.Context, userID uuid.UUID) error {
	p.calls = append(p.calls, userID)
	return p.err
}

func TestCreateOrUpdateUserExistingRefreshesLogin(t *testing.T) {
	userID := uuid.New()
	existing := &User{ID: userID, Email: "old@example.com", Name: "Old Name"}

	var updatedName string
	repo := &repoStub{
		findUserByOAuth: func(_ context.Context, provider, providerID string) (*User, error) {
			if provider != "google" || providerID != "sub-1" {
				t.Fatalf("unexpected lookup %s/%s", provider, providerID)
			}
			return existing, nil
		},
		updateUserLogin: func(_ context.Context, id uuid.UUID, name string) error {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			updatedName = name
			return nil
		},
	}

	provisioner := &provisionerStub{}
	svc := NewService(repo, provisioner, time.Hour)

	user, err := svc.CreateOrUpdateUser(context.Background(), &GoogleClaims{
		Sub:   "sub-1",
		Email: "old@example.com",
		Name:  "New Name",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdateUser: %v", err)
	}

	if user.Name != "New Name" || updatedName != "New Name" {
		t.Fatalf("expected name refresh, got %q / %q", user.Name, updatedName)
	}
	if len(provisioner.calls) != 0 {
		t.Fatal("existing user must not re-provision a profile")
	}
}

func TestCreateOrUpdateUserNewProvisionsProfile(t *testing.T) {
	var created User
	repo := &repoStub{
		createUser: func(_ context.Context, user User) (User, error) {
			created = user
			return user, nil
		},
	}
	provisioner := &provisionerStub{}
	svc := NewService(repo, provisioner, time.Hour)

	user, err := svc.CreateOrUpdateUser(context.Background(), &GoogleClaims{
		Sub:   "sub-2",
		Email: "new@example.com",
		Name:  "Fresh User",
	})
	if err != nil {
		t.Fatalf("CreateOrUpdateUser: %v", err)
	}

	if user.ID != created.ID {
		t.Fatal("returned user should match created user")
	}
	if len(provisioner.calls) != 1 || provisioner.calls[0] != created.ID {
		t.Fatalf("expected profile provisioning for %s, got %v", created.ID, provisioner.calls)
	}
}

func TestCreateOrUpdateUserProvisionFailure(t *testing.T) {
	repo := &repoStub{}
	provisioner := &provisionerStub{err: errors.New("db down")}
	svc := NewService(repo, provisioner, time.Hour)

	_, err := svc.CreateOrUpdateUser(context.Background(), &GoogleClaims{Sub: "x", Email: "x@y.z"})
	if err == nil || !strings.Contains(err.Error(), "provision profile") {
		t.Fatalf("expected provisioning error, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := NewInMemoryRepository()
	userID := uuid.New()
	if _, err := repo.CreateUser(context.Background(), User{ID: userID, Email: "a@b.c"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	svc := NewService(repo, nil, time.Hour)

	token, err := svc.CreateSession(context.Background(), userID, "agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	user, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if user == nil || user.ID != userID {
		t.Fatalf("expected session user %s, got %+v", userID, user)
	}

	if err := svc.DeleteSession(context.Background(), token); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	user, err = svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession after delete: %v", err)
	}
	if user != nil {
		t.Fatal("expected session to be gone after delete")
	}
}

func TestValidateSessionExpired(t *testing.T) {
	userID := uuid.New()
	deleted := false
	repo := &repoStub{
		findSessionByHash: func(_ context.Context, _ string) (*Session, *User, error) {
			return &Session{ID: uuid.New(), UserID: userID, ExpiresAt: time.Now().Add(-time.Minute)},
				&User{ID: userID}, nil
		},
		deleteSession: func(_ context.Context, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, nil, time.Hour)

	user, err := svc.ValidateSession(context.Background(), "some-token")
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if user != nil {
		t.Fatal("expected expired session to be rejected")
	}
	if !deleted {
		t.Fatal("expected expired session to be cleaned up")
	}
}

func TestValidateSessionEmptyToken(t *testing.T) {
	svc := NewService(&repoStub{}, nil, time.Hour)
	user, err := svc.ValidateSession(context.Background(), "")
	if err != nil || user != nil {
		t.Fatalf("expected nil/nil for empty token, got %v/%v", user, err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	repo := NewInMemoryRepository()
	userID := uuid.New()
	_, _ = repo.CreateUser(context.Background(), User{ID: userID})
	_ = repo.CreateSession(context.Background(), Session{ID: uuid.New(), UserID: userID, ExpiresAt: time.Now().Add(-time.Hour)}, "h1")
	_ = repo.CreateSession(context.Background(), Session{ID: uuid.New(), UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, "h2")

	svc := NewService(repo, nil, time.Hour)
	removed, err := svc.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}
