package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"plume/internal/config"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
	"plume/internal/domain/services"
	"plume/internal/httputil"
	"plume/internal/stage"
)

// StageHandler drives virtual-stage recording sessions over HTTP.
// The browser owns the microphone; the server owns the state machine.
type StageHandler struct {
	registry  *stage.Registry
	creations services.CreationService
	guard     repositories.InFlightGuard
	logger    *slog.Logger
}

// NewStageHandler creates a new stage handler
func NewStageHandler(registry *stage.Registry, creations services.CreationService, guard repositories.InFlightGuard, logger *slog.Logger) *StageHandler {
	return &StageHandler{
		registry:  registry,
		creations: creations,
		guard:     guard,
		logger:    logger,
	}
}

type startRequest struct {
	Permission stage.Permission `json:"permission"`
}

type saveRecordingRequest struct {
	Title string `json:"title"`
}

type chunkResponse struct {
	Accepted bool           `json:"accepted"`
	Session  stage.Snapshot `json:"session"`
}

// OpenSession creates an idle session for the caller
// POST /api/stage/sessions
func (h *StageHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session := h.registry.Open(identity.UID)
	httputil.RespondJSON(w, http.StatusCreated, session.Snapshot())
}

// GetSession returns the session state
// GET /api/stage/sessions/{id}
func (h *StageHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session.Snapshot())
}

// Start begins recording. The body carries the browser's getUserMedia outcome.
// POST /api/stage/sessions/{id}/start
func (h *StageHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}

	var req startRequest
	if !parseBody(w, r, &req) {
		return
	}

	snap, err := session.Start(stage.WithPermission(r.Context(), req.Permission))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, snap)
}

// Pause suspends the recording
// POST /api/stage/sessions/{id}/pause
func (h *StageHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*stage.Session).Pause)
}

// Resume continues a paused recording
// POST /api/stage/sessions/{id}/resume
func (h *StageHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*stage.Session).Resume)
}

// Stop finalizes the recording
// POST /api/stage/sessions/{id}/stop
func (h *StageHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*stage.Session).Stop)
}

// Reset discards a finished recording
// POST /api/stage/sessions/{id}/reset
func (h *StageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*stage.Session).Reset)
}

// AppendChunk adds one encoded audio chunk. Chunks sent while not recording
// are dropped and reported as not accepted.
// POST /api/stage/sessions/{id}/chunks
func (h *StageHandler) AppendChunk(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}

	chunk, err := httputil.ReadBody(w, r, config.MaxChunkBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "Chunk too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid chunk")
		return
	}

	accepted, err := session.Append(chunk)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, chunkResponse{Accepted: accepted, Session: session.Snapshot()})
}

// Save uploads the finished recording as an audio draft
// POST /api/stage/sessions/{id}/save
func (h *StageHandler) Save(w http.ResponseWriter, r *http.Request) {
	session, identity, ok := h.session(w, r)
	if !ok {
		return
	}

	var req saveRecordingRequest
	if !parseBody(w, r, &req) {
		return
	}

	release, ok := claimRequest(w, r, h.guard, identity.UID)
	if !ok {
		return
	}
	defer release()

	save := func(ctx context.Context, artifact *stage.Artifact, title string) (*models.Creation, error) {
		return h.creations.SaveAudio(ctx, identity, &services.SaveAudioRequest{
			Title:    title,
			Audio:    artifact.Reader(),
			Size:     artifact.Size(),
			MimeType: artifact.MimeType(),
		})
	}

	creation, err := session.Save(context.WithoutCancel(r.Context()), req.Title, save)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, creation)
}

// CloseSession releases the microphone and discards the session
// DELETE /api/stage/sessions/{id}
func (h *StageHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.registry.Close(sessionID, identity.UID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StageHandler) transition(w http.ResponseWriter, r *http.Request, apply func(*stage.Session) stage.Snapshot) {
	session, _, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, apply(session))
}

// session resolves the path's session for the caller.
func (h *StageHandler) session(w http.ResponseWriter, r *http.Request) (*stage.Session, *models.Identity, bool) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return nil, nil, false
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return nil, nil, false
	}

	session, err := h.registry.Get(sessionID, identity.UID)
	if err != nil {
		handleError(w, err)
		return nil, nil, false
	}
	return session, identity, true
}
