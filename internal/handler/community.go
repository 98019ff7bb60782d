package handler

import (
	"log/slog"
	"net/http"

	"plume/internal/domain/services"
	"plume/internal/httputil"
)

// CommunityHandler serves the published feed and its reactions
type CommunityHandler struct {
	creations services.CreationService
	social    services.SocialService
	logger    *slog.Logger
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(creations services.CreationService, social services.SocialService, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{
		creations: creations,
		social:    social,
		logger:    logger,
	}
}

// ListPublished returns every published creation, newest first
// GET /api/community
func (h *CommunityHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	creations, err := h.creations.ListPublished(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, creations)
}

// ToggleLike likes or unlikes a creation
// POST /api/creations/{id}/like
func (h *CommunityHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	creationID, ok := PathParam(w, r, "id", "Creation ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	state, err := h.social.ToggleLike(r.Context(), identity, creationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, state)
}

// AddComment appends a comment
// POST /api/creations/{id}/comments
func (h *CommunityHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	creationID, ok := PathParam(w, r, "id", "Creation ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req services.AddCommentRequest
	if !parseBody(w, r, &req) {
		return
	}

	creation, err := h.social.AddComment(r.Context(), identity, creationID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, creation)
}
