// Package api provides session management handlers for LeadAdvisor endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ClevensDigital/LeadAdvisor/internal/flow"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// sessionResponse is the wire shape for session payloads.
type sessionResponse struct {
	Session      *models.Session `json:"session"`
	QuickReplies []string        `json:"quickReplies"`
}

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("createSessionHandler invoked", "method", r.Method, "path", r.URL.Path)

	sess, err := s.sessions.CreateSession()
	if err != nil {
		slog.Error("createSessionHandler create failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}

	writeJSONResponse(w, http.StatusCreated, models.Success(sessionResponse{
		Session:      sess,
		QuickReplies: flow.InitialQuickReplies(),
	}))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slog.Debug("getSessionHandler invoked", "sessionID", id)

	sess, err := s.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, flow.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("getSessionHandler lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(sessionResponse{
		Session:      sess,
		QuickReplies: s.sessions.QuickRepliesFor(sess),
	}))
}

// deleteSessionHandler handles DELETE /sessions/{id}. Deleting an absent
// session succeeds.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slog.Debug("deleteSessionHandler invoked", "sessionID", id)

	if err := s.sessions.DeleteSession(id); err != nil {
		slog.Error("deleteSessionHandler delete failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// sessionMessageHandler handles POST /sessions/{id}/messages: the stateful
// streaming endpoint. The server runs the full conversation pipeline and
// streams the same SSE frames as /chat, with the complete frame augmented
// by resolved gallery images and refreshed quick replies.
func (s *Server) sessionMessageHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slog.Debug("sessionMessageHandler invoked", "sessionID", id)

	var req models.SessionMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("sessionMessageHandler invalid JSON", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("sessionMessageHandler validation failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	// Resolve the session before committing to the event stream so missing
	// sessions still get a conventional 404.
	if _, err := s.sessions.GetSession(id); err != nil {
		if errors.Is(err, flow.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("sessionMessageHandler lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get session"))
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		slog.Error("sessionMessageHandler streaming unsupported", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Streaming not supported"))
		return
	}

	err = s.sessions.HandleMessage(r.Context(), id, req.Text, flow.SessionCallbacks{
		OnChunk: func(text, fullText string) {
			sse.writeEvent(models.NewTextDeltaEvent(text, fullText))
		},
		OnComplete: func(result flow.TurnResult) {
			stage := result.Stage
			ev := models.NewCompleteEvent(result.Text, result.Citations, result.Gallery, &stage)
			ev.GalleryImages = result.GalleryImages
			ev.QuickReplies = result.QuickReplies
			sse.writeEvent(ev)
		},
		OnError: func(message string) {
			sse.writeEvent(models.NewErrorEvent(message))
		},
	})
	if err != nil {
		// HandleMessage fails before any frame is written.
		switch {
		case errors.Is(err, flow.ErrSessionNotFound):
			sse.writeEvent(models.NewErrorEvent("Session not found"))
		case errors.Is(err, flow.ErrSessionBusy):
			sse.writeEvent(models.NewErrorEvent("A response is already streaming for this session"))
		default:
			slog.Error("sessionMessageHandler failed", "error", err, "sessionID", id)
			sse.writeEvent(models.NewErrorEvent(flow.StreamErrorMessage))
		}
	}
}

// sessionQuickRepliesHandler handles GET /sessions/{id}/quickreplies.
func (s *Server) sessionQuickRepliesHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	slog.Debug("sessionQuickRepliesHandler invoked", "sessionID", id)

	sess, err := s.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, flow.ErrSessionNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
			return
		}
		slog.Error("sessionQuickRepliesHandler lookup failed", "error", err, "sessionID", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(s.sessions.QuickRepliesFor(sess)))
}

// quickRepliesHandler handles GET /quickreplies?state=<stage> for stateless
// callers tracking their own stage.
func (s *Server) quickRepliesHandler(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	slog.Debug("quickRepliesHandler invoked", "state", state)

	stage := models.StageWelcome
	if state != "" {
		parsed, err := models.ParseStage(state)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		stage = parsed
	}

	writeJSONResponse(w, http.StatusOK, models.Success(flow.QuickReplies(stage, "", "")))
}

// leadsHandler handles GET /leads.
func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("leadsHandler invoked")

	leads, err := s.sessions.ListLeads()
	if err != nil {
		slog.Error("leadsHandler list failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list leads"))
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(leads))
}
