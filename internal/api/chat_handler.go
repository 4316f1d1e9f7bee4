package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ClevensDigital/LeadAdvisor/internal/flow"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// chatHandler handles POST /chat: the stateless streaming endpoint. The
// caller supplies the full message history and its current funnel stage;
// the reply streams back as Server-Sent Events.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("chatHandler invoked", "method", r.Method, "path", r.URL.Path)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("chatHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("chatHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		slog.Error("chatHandler streaming unsupported", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Streaming not supported"))
		return
	}

	s.advisor.StreamReply(r.Context(), req.Stage(), req.Messages, flow.Callbacks{
		OnChunk: func(text, fullText string) {
			sse.writeEvent(models.NewTextDeltaEvent(text, fullText))
		},
		OnComplete: func(cleanText string, citations []string, gallery *models.GalleryDirective, nextStage *models.Stage) {
			sse.writeEvent(models.NewCompleteEvent(cleanText, citations, gallery, nextStage))
		},
		OnError: func(message string) {
			sse.writeEvent(models.NewErrorEvent(message))
		},
	})
}
