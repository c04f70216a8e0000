package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// allowlist restricts sign-in to configured emails or domains. An empty
// allowlist admits everyone (dev mode).
type allowlist struct {
	domains map[string]struct{}
	emails  map[string]struct{}
}

func newAllowlist(domains, emails []string) allowlist {
	al := allowlist{
		domains: make(map[string]struct{}, len(domains)),
		emails:  make(map[string]struct{}, len(emails)),
	}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			al.domains[d] = struct{}{}
		}
	}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			al.emails[e] = struct{}{}
		}
	}
	return al
}

func (al allowlist) empty() bool {
	return len(al.domains) == 0 && len(al.emails) == 0
}

func (al allowlist) allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := al.emails[email]; ok {
		return true
	}
	if _, domain, found := strings.Cut(email, "@"); found {
		if _, ok := al.domains[domain]; ok {
			return true
		}
	}
	return al.empty()
}

// GoogleAuthenticator handles Google OAuth 2.0 / OIDC authentication.
type GoogleAuthenticator struct {
	config    *oauth2.Config
	verifier  *oidc.IDTokenVerifier
	allowlist allowlist
}

// NewGoogleAuthenticator creates a new GoogleAuthenticator.
func NewGoogleAuthenticator(ctx context.Context, clientID, clientSecret, redirectURL string, allowedDomains, allowedEmails []string) (*GoogleAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return &GoogleAuthenticator{
		config:    config,
		verifier:  provider.Verifier(&oidc.Config{ClientID: clientID}),
		allowlist: newAllowlist(allowedDomains, allowedEmails),
	}, nil
}

// AuthURL generates the Google OAuth consent URL with the given state.
func (g *GoogleAuthenticator) AuthURL(state string) string {
	return g.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange exchanges the authorization code for tokens and returns the user claims.
func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (*GoogleClaims, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// IsEmailAllowed checks if the given email is allowed based on domain/email allowlists.
func (g *GoogleAuthenticator) IsEmailAllowed(email string) bool {
	return g.allowlist.allows(email)
}

// HasAllowlist returns true if any allowlist restrictions are configured.
func (g *GoogleAuthenticator) HasAllowlist() bool {
	return !g.allowlist.empty()
}

// GenerateState generates a cryptographically secure random state string.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
