package handler

import (
	"log/slog"
	"net/http"

	"plume/internal/domain/models"
	"plume/internal/domain/services"
	"plume/internal/httputil"
)

// UserPreferencesHandler serves the signed-in artist's preferences.
type UserPreferencesHandler struct {
	service services.UserPreferencesService
	logger  *slog.Logger
}

func NewUserPreferencesHandler(service services.UserPreferencesService, logger *slog.Logger) *UserPreferencesHandler {
	return &UserPreferencesHandler{
		service: service,
		logger:  logger,
	}
}

// preferencesResponse adds the name shown on the artist's work: the profile
// artist name when set, otherwise the identity's display name.
type preferencesResponse struct {
	*models.UserPreferences
	ArtistName string `json:"artist_name"`
}

// GetPreferences handles GET /api/users/me/preferences.
func (h *UserPreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), identity.UID)
	if err != nil {
		handleError(w, err)
		return
	}
	h.respond(w, identity, prefs)
}

// UpdatePreferences handles PATCH /api/users/me/preferences. Only the
// namespaces present in the body change.
func (h *UserPreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req models.UpdatePreferencesRequest
	if !parseBody(w, r, &req) {
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), identity.UID, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	h.respond(w, identity, prefs)
}

func (h *UserPreferencesHandler) respond(w http.ResponseWriter, identity *models.Identity, prefs *models.UserPreferences) {
	name := identity.DisplayName
	profile, err := prefs.GetProfile()
	if err != nil {
		h.logger.Warn("unreadable profile namespace", "user_id", identity.UID, "error", err)
	} else if profile.ArtistName != nil {
		name = *profile.ArtistName
	}
	httputil.RespondJSON(w, http.StatusOK, preferencesResponse{UserPreferences: prefs, ArtistName: name})
}
