package handler

import (
	"log/slog"
	"net/http"

	"plume/internal/httputil"
	"plume/internal/tour"
)

// TourHandler walks the caller through the onboarding tour
type TourHandler struct {
	controller *tour.Controller
	logger     *slog.Logger
}

// NewTourHandler creates a new tour handler
func NewTourHandler(controller *tour.Controller, logger *slog.Logger) *TourHandler {
	return &TourHandler{
		controller: controller,
		logger:     logger,
	}
}

type advanceTourRequest struct {
	Action tour.Action `json:"action"`
}

// GetTour GET /api/tour
func (h *TourHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	state, err := h.controller.State(r.Context(), identity.UID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}

// Advance applies next, prev, explore, finish or restart
// POST /api/tour/advance
func (h *TourHandler) Advance(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req advanceTourRequest
	if !parseBody(w, r, &req) {
		return
	}

	state, err := h.controller.Advance(r.Context(), identity.UID, req.Action)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}
