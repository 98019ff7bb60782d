package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"plume/internal/domain/models"
	"plume/internal/domain/services"
	"plume/internal/feed"
	"plume/internal/handler/sse"
	"plume/internal/httputil"
)

// Stream scopes
const (
	ScopeMine      = "mine"
	ScopePublished = "published"
)

// SSE event names
const (
	eventSnapshot = "snapshot"
	eventRefresh  = "refresh"
)

// SSEHandler streams live creation lists over Server-Sent Events.
// Each change sends the whole refreshed list, so a client that missed
// events only needs the next one to catch up.
type SSEHandler struct {
	hub       *feed.Hub
	creations services.CreationService
	config    *sse.Config
	logger    *slog.Logger
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(hub *feed.Hub, creations services.CreationService, config *sse.Config, logger *slog.Logger) *SSEHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &SSEHandler{
		hub:       hub,
		creations: creations,
		config:    config,
		logger:    logger,
	}
}

type refreshPayload struct {
	Event     *models.CreationEvent `json:"event,omitempty"`
	Creations []models.Creation     `json:"creations"`
}

// StreamCreations handles GET /api/creations/stream?scope=mine|published
// EventSource cannot send headers, so the token may come as ?access_token=.
func (h *SSEHandler) StreamCreations(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = ScopeMine
	}

	var filter feed.Filter
	switch scope {
	case ScopeMine:
		filter = feed.MineFilter(identity.UID)
	case ScopePublished:
		filter = feed.PublishedFilter()
	default:
		httputil.RespondError(w, http.StatusBadRequest, "scope must be mine or published")
		return
	}

	load := func(ctx context.Context) ([]models.Creation, error) {
		if scope == ScopePublished {
			return h.creations.ListPublished(ctx)
		}
		return h.creations.ListMine(ctx, identity)
	}

	// Subscribe before the snapshot so no change falls between them
	sub := h.hub.Subscribe(filter)
	defer sub.Close()

	initial, err := load(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	clientID := uuid.NewString()
	writer, err := sse.NewWriter(w, scope, clientID, h.config.RetryInterval)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	logger := h.logger.With("scope", scope, "client_id", clientID, "user_id", identity.UID)
	logger.Debug("SSE stream established")
	defer logger.Debug("SSE stream ended")

	if err := writer.WriteEvent(eventSnapshot, refreshPayload{Creations: initial}); err != nil {
		logger.Info("client disconnected before snapshot", "error", err)
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	stopped := keepAlive.Start(writer, logger)
	// Stop blocks until the pinger exits; the ResponseWriter is invalid
	// once ServeHTTP returns.
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stopped:
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			creations, err := load(r.Context())
			if err != nil {
				logger.Warn("reload list for stream failed", "error", err)
				continue
			}
			if err := writer.WriteEvent(eventRefresh, refreshPayload{Event: &event, Creations: creations}); err != nil {
				logger.Info("client disconnected during event write", "error", err)
				return
			}
		}
	}
}
