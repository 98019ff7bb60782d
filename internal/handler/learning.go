package handler

import (
	"net/http"

	"plume/internal/catalog"
	"plume/internal/httputil"
)

// LearningHandler serves the learning tracks catalogue
type LearningHandler struct {
	catalog *catalog.Catalog
}

// NewLearningHandler creates a new learning handler
func NewLearningHandler(catalog *catalog.Catalog) *LearningHandler {
	return &LearningHandler{catalog: catalog}
}

// ListTracks GET /api/learning/tracks
func (h *LearningHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.Tracks())
}

// GetTrack returns a track with its lesson content
// GET /api/learning/tracks/{id}
func (h *LearningHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	trackID, ok := PathParam(w, r, "id", "Track ID")
	if !ok {
		return
	}

	track, err := h.catalog.Track(trackID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, track)
}
