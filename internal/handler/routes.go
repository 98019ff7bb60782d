package handler

import "net/http"

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
// Blobs is set only when recordings are served from the in-memory store.
type Handlers struct {
	Session     *SessionHandler
	Creation    *CreationHandler
	Community   *CommunityHandler
	Stream      *SSEHandler
	Stage       *StageHandler
	AI          *AIHandler
	Learning    *LearningHandler
	Tour        *TourHandler
	Preferences *UserPreferencesHandler
	Blobs       BlobSource
}

// RegisterRoutes mounts every route on mux (Go 1.22+ enhanced patterns).
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	// Health check
	mux.HandleFunc("GET /health", HealthCheck)

	// Session and route gate
	mux.HandleFunc("GET /api/session", h.Session.GetSession)
	mux.HandleFunc("GET /api/session/route", h.Session.DecideRoute)

	// Creation routes
	mux.HandleFunc("POST /api/creations", h.Creation.SaveText)
	mux.HandleFunc("GET /api/creations", h.Creation.ListMine)
	mux.HandleFunc("GET /api/creations/stream", h.Stream.StreamCreations) // SSE; must come before {id}
	mux.HandleFunc("GET /api/creations/{id}", h.Creation.GetCreation)
	mux.HandleFunc("PATCH /api/creations/{id}", h.Creation.UpdateCreation)
	mux.HandleFunc("DELETE /api/creations/{id}", h.Creation.DeleteCreation)

	// Community routes
	mux.HandleFunc("GET /api/community", h.Community.ListPublished)
	mux.HandleFunc("POST /api/creations/{id}/like", h.Community.ToggleLike)
	mux.HandleFunc("POST /api/creations/{id}/comments", h.Community.AddComment)

	// Virtual stage routes
	mux.HandleFunc("POST /api/stage/sessions", h.Stage.OpenSession)
	mux.HandleFunc("GET /api/stage/sessions/{id}", h.Stage.GetSession)
	mux.HandleFunc("DELETE /api/stage/sessions/{id}", h.Stage.CloseSession)
	mux.HandleFunc("POST /api/stage/sessions/{id}/start", h.Stage.Start)
	mux.HandleFunc("POST /api/stage/sessions/{id}/pause", h.Stage.Pause)
	mux.HandleFunc("POST /api/stage/sessions/{id}/resume", h.Stage.Resume)
	mux.HandleFunc("POST /api/stage/sessions/{id}/stop", h.Stage.Stop)
	mux.HandleFunc("POST /api/stage/sessions/{id}/reset", h.Stage.Reset)
	mux.HandleFunc("POST /api/stage/sessions/{id}/chunks", h.Stage.AppendChunk)
	mux.HandleFunc("POST /api/stage/sessions/{id}/save", h.Stage.Save)

	// AI tools
	mux.HandleFunc("POST /api/ai/rhymes", h.AI.Rhymes)
	mux.HandleFunc("POST /api/ai/prompts", h.AI.Prompts)
	mux.HandleFunc("POST /api/ai/feedback", h.AI.Feedback)
	mux.HandleFunc("POST /api/ai/inspiration", h.AI.Inspiration)
	mux.HandleFunc("POST /api/ai/tutor", h.AI.Tutor)
	mux.HandleFunc("POST /api/ai/chat", h.AI.Chat)

	// Learning and onboarding
	mux.HandleFunc("GET /api/learning/tracks", h.Learning.ListTracks)
	mux.HandleFunc("GET /api/learning/tracks/{id}", h.Learning.GetTrack)
	mux.HandleFunc("GET /api/tour", h.Tour.GetTour)
	mux.HandleFunc("POST /api/tour/advance", h.Tour.Advance)

	// User preferences routes
	mux.HandleFunc("GET /api/users/me/preferences", h.Preferences.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", h.Preferences.UpdatePreferences)

	if h.Blobs != nil {
		mux.HandleFunc("GET /blobs/{key...}", ServeBlobs(h.Blobs))
	}
}
