package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"freightdeck/internal/profile"
	"freightdeck/internal/realtime"
)

const maxAvatarUploadBytes int64 = 5 << 20

// ProfileHandler exposes profile read/write, avatar management, and the
// profile change stream.
type ProfileHandler struct {
	service *profile.Service
	hub     *realtime.Hub
	logger  *slog.Logger
}

// NewProfileHandler creates a handler.
func NewProfileHandler(service *profile.Service, hub *realtime.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, hub: hub, logger: logger}
}

// Get returns the session user's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	p, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, err, "fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update stores the profile name fields.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	p, err := h.service.Save(r.Context(), user.ID, payload.FirstName, payload.LastName)
	if err != nil {
		h.handleError(w, err, "save profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadAvatar accepts a multipart image upload and stores it as the user's
// avatar.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUploadBytes)
	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("avatar upload is too large (max %d bytes)", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid avatar upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer func() { _ = file.Close() }()

	p, err := h.service.UploadAvatar(r.Context(), user.ID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.handleError(w, err, "upload avatar")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RemoveAvatar deletes the stored avatar and clears the profile's URL.
func (h *ProfileHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	p, err := h.service.RemoveAvatar(r.Context(), user.ID)
	if err != nil {
		h.handleError(w, err, "remove avatar")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Events streams the session user's profile changes as server-sent events.
// The subscription ends when the client disconnects.
func (h *ProfileHandler) Events(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := h.hub.Subscribe(realtime.Filter{Table: "profiles", RowID: user.ID})
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment so proxies commit the stream immediately.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.C:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: profile\ndata: %s\n\n", ev.Row)
			flusher.Flush()
		}
	}
}

func (h *ProfileHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, profile.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrBusy):
		writeError(w, http.StatusConflict, "another avatar operation is in progress")
	default:
		h.logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}
