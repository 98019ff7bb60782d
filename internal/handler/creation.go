package handler

import (
	"context"
	"log/slog"
	"net/http"

	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
	"plume/internal/domain/services"
	"plume/internal/httputil"
)

// CreationHandler handles the writing pad and "my creations" requests.
// Follows Clean Architecture: handlers only communicate with services, never repositories
type CreationHandler struct {
	service services.CreationService
	guard   repositories.InFlightGuard
	logger  *slog.Logger
}

// NewCreationHandler creates a new creation handler
func NewCreationHandler(service services.CreationService, guard repositories.InFlightGuard, logger *slog.Logger) *CreationHandler {
	return &CreationHandler{
		service: service,
		guard:   guard,
		logger:  logger,
	}
}

// patchCreationRequest distinguishes an absent field from an explicit null.
type patchCreationRequest struct {
	Title  httputil.Optional[string] `json:"title"`
	Body   httputil.Optional[string] `json:"body"`
	Status *models.Status            `json:"status"`
}

// SaveText creates or updates a written creation
// POST /api/creations
// Returns 201 when a new draft is created, 200 when an existing text is updated
func (h *CreationHandler) SaveText(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req services.SaveTextRequest
	if !parseBody(w, r, &req) {
		return
	}

	release, ok := claimRequest(w, r, h.guard, identity.UID)
	if !ok {
		return
	}
	defer release()

	// A client disconnect must not abort a save half way
	creation, err := h.service.SaveText(context.WithoutCancel(r.Context()), identity, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, creation)
}

// ListMine lists the caller's creations, newest first
// GET /api/creations
func (h *CreationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	creations, err := h.service.ListMine(r.Context(), identity)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, creations)
}

// GetCreation returns an owned or published creation
// GET /api/creations/{id}
func (h *CreationHandler) GetCreation(w http.ResponseWriter, r *http.Request) {
	creationID, ok := PathParam(w, r, "id", "Creation ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	creation, err := h.service.Get(r.Context(), identity, creationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, creation)
}

// UpdateCreation edits the title, the body, or the publication status
// PATCH /api/creations/{id}
// A null title resets it to the placeholder; a null body is rejected.
func (h *CreationHandler) UpdateCreation(w http.ResponseWriter, r *http.Request) {
	creationID, ok := PathParam(w, r, "id", "Creation ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var patch patchCreationRequest
	if !parseBody(w, r, &patch) {
		return
	}

	release, ok := claimRequest(w, r, h.guard, identity.UID)
	if !ok {
		return
	}
	defer release()

	req := &services.UpdateCreationRequest{
		Title:  patch.Title.OrZero(),
		Body:   patch.Body.OrZero(),
		Status: patch.Status,
	}
	creation, err := h.service.Update(context.WithoutCancel(r.Context()), identity, creationID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, creation)
}

// DeleteCreation removes a creation and its recording
// DELETE /api/creations/{id}
func (h *CreationHandler) DeleteCreation(w http.ResponseWriter, r *http.Request) {
	creationID, ok := PathParam(w, r, "id", "Creation ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	release, ok := claimRequest(w, r, h.guard, identity.UID)
	if !ok {
		return
	}
	defer release()

	if err := h.service.Delete(context.WithoutCancel(r.Context()), identity, creationID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
