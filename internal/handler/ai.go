package handler

import (
	"context"
	"log/slog"
	"net/http"

	"plume/internal/domain/services"
	"plume/internal/httputil"
)

// AIHandler exposes the writing assistant tools.
// Every call is a single model request; failures answer 503 and are not retried.
type AIHandler struct {
	assistant services.WritingAssistant
	logger    *slog.Logger
}

// NewAIHandler creates a new AI tools handler
func NewAIHandler(assistant services.WritingAssistant, logger *slog.Logger) *AIHandler {
	return &AIHandler{
		assistant: assistant,
		logger:    logger,
	}
}

// Rhymes POST /api/ai/rhymes
func (h *AIHandler) Rhymes(w http.ResponseWriter, r *http.Request) {
	serveTool(w, r, h.assistant.Rhymes)
}

// Prompts POST /api/ai/prompts
func (h *AIHandler) Prompts(w http.ResponseWriter, r *http.Request) {
	serveTool(w, r, h.assistant.Prompts)
}

// Feedback POST /api/ai/feedback
func (h *AIHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	serveTool(w, r, h.assistant.Feedback)
}

// Inspiration POST /api/ai/inspiration
func (h *AIHandler) Inspiration(w http.ResponseWriter, r *http.Request) {
	serveTool(w, r, h.assistant.Inspiration)
}

// Tutor POST /api/ai/tutor
func (h *AIHandler) Tutor(w http.ResponseWriter, r *http.Request) {
	serveTool(w, r, h.assistant.Tutor)
}

// Chat POST /api/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req services.ChatRequest
	if !parseBody(w, r, &req) {
		return
	}

	resp, err := h.assistant.Chat(r.Context(), identity, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// serveTool decodes Req, runs call and writes its response.
func serveTool[Req, Resp any](w http.ResponseWriter, r *http.Request, call func(context.Context, *Req) (*Resp, error)) {
	var req Req
	if !parseBody(w, r, &req) {
		return
	}

	resp, err := call(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
