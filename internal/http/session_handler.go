package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"freightdeck/internal/auth"
	"freightdeck/internal/profile"
)

const sessionCookieName = "freightdeck_session"

// userView is the JSON shape of the authenticated user.
type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionHandler exposes the current-session endpoints backing the client's
// auth state: who am I, and log out.
type SessionHandler struct {
	authService  *auth.Service
	profiles     *profile.Service
	logger       *slog.Logger
	secureCookie bool
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(authService *auth.Service, profiles *profile.Service, env string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		authService:  authService,
		profiles:     profiles,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
	}
}

// Current returns the session user and their profile. The profile is null
// when its fetch fails so a degraded profile store never blocks sign-in.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	response := map[string]any{
		"user": userView{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
		},
		"profile": nil,
	}

	p, err := h.profiles.Get(r.Context(), user.ID)
	switch {
	case err == nil:
		response["profile"] = p
	case errors.Is(err, profile.ErrNotFound):
		// Null profile, the client treats it as not yet filled in.
	default:
		h.logger.Error("fetch profile for session", "user_id", user.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, response)
}

// Logout deletes the server-side session and clears the cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.authService.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}
