package handler

import (
	"net/http"

	"plume/internal/auth"
	"plume/internal/httputil"
)

// SessionHandler reports the caller's identity state and gates client routes.
// Both endpoints are public; they answer for anonymous callers too.
type SessionHandler struct{}

// NewSessionHandler creates a new session handler
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// GetSession returns the tri-state resolution
// GET /api/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, httputil.GetResolution(r))
}

// DecideRoute returns the gate decision for a client route
// GET /api/session/route?path=/stage
func (h *SessionHandler) DecideRoute(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Query().Get("path")
	if route == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, auth.Decide(route, httputil.GetResolution(r)))
}
