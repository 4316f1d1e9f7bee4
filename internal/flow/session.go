package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ClevensDigital/LeadAdvisor/internal/extract"
	"github.com/ClevensDigital/LeadAdvisor/internal/gallery"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
	"github.com/ClevensDigital/LeadAdvisor/internal/util"
)

// GreetingMessage opens every new conversation.
const GreetingMessage = "Hi there! I'm here to help you explore your options with Dr. Clevens. What brings you here today?"

// ConnectionErrorMessage is recorded in the transcript when the provider
// stream fails mid-turn.
const ConnectionErrorMessage = "I'm sorry, I'm having trouble connecting right now. Please try again in a moment."

// Errors returned by the session manager.
var (
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrSessionBusy     = fmt.Errorf("a response is already streaming for this session")
)

// TurnResult is delivered to SessionCallbacks.OnComplete after a full
// conversation turn: the cleaned reply, its citations, the resolved gallery
// (when a directive fired), the stage after transition, and the refreshed
// quick replies.
type TurnResult struct {
	Text          string
	Citations     []string
	Gallery       *models.GalleryDirective
	GalleryImages []models.GalleryImage
	Stage         models.Stage
	QuickReplies  []string
}

// SessionCallbacks receive the output of a stateful conversation turn.
// Exactly one of OnComplete or OnError fires after the chunks.
type SessionCallbacks struct {
	OnChunk    func(text, fullText string)
	OnComplete func(result TurnResult)
	OnError    func(message string)
}

// SessionManager owns session lifecycle and runs the full conversation
// pipeline for stateful endpoints. Stage mutation happens only here.
type SessionManager struct {
	store    store.Store
	advisor  *Advisor
	gallery  *gallery.Resolver
	resolver NextStageResolver
	notifier *notify.Notifier
	directed bool

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSessionManager wires the conversation pipeline together. directed
// selects opportunistic lead extraction on every turn; rule-based mode
// extracts only in the capture stage.
func NewSessionManager(st store.Store, advisor *Advisor, galleryResolver *gallery.Resolver, resolver NextStageResolver, notifier *notify.Notifier, directed bool) *SessionManager {
	slog.Debug("flow.NewSessionManager: created", "directed", directed)
	return &SessionManager{
		store:    st,
		advisor:  advisor,
		gallery:  galleryResolver,
		resolver: resolver,
		notifier: notifier,
		directed: directed,
		inFlight: make(map[string]bool),
	}
}

// CreateSession starts a new conversation with the greeting already in the
// transcript.
func (m *SessionManager) CreateSession() (*models.Session, error) {
	now := time.Now().UTC()
	sess := models.Session{
		ID:    util.GenerateSessionID(),
		Stage: models.StageWelcome,
		Messages: []models.Message{
			{Role: models.MessageRoleAssistant, Text: GreetingMessage, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.SaveSession(sess); err != nil {
		slog.Error("SessionManager.CreateSession: save failed", "error", err, "sessionID", sess.ID)
		return nil, err
	}
	slog.Info("SessionManager.CreateSession: session created", "sessionID", sess.ID)
	return &sess, nil
}

// GetSession returns a session by ID.
func (m *SessionManager) GetSession(id string) (*models.Session, error) {
	sess, err := m.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// DeleteSession removes a session.
func (m *SessionManager) DeleteSession(id string) error {
	return m.store.DeleteSession(id)
}

// ListLeads returns all captured leads.
func (m *SessionManager) ListLeads() ([]models.Lead, error) {
	return m.store.ListLeads()
}

// QuickRepliesFor returns stage-appropriate suggestions for a session,
// refined by the assistant's last message.
func (m *SessionManager) QuickRepliesFor(sess *models.Session) []string {
	return QuickReplies(sess.Stage, lastAssistantText(sess), sess.ProcedureType)
}

func lastAssistantText(sess *models.Session) string {
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == models.MessageRoleAssistant {
			return sess.Messages[i].Text
		}
	}
	return ""
}

// acquireSession marks a session as streaming. A second concurrent send for
// the same session is rejected.
func (m *SessionManager) acquireSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[id] {
		return false
	}
	m.inFlight[id] = true
	return true
}

func (m *SessionManager) releaseSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}

// HandleMessage runs one stateful conversation turn: bookkeeping, the
// provider stream, directive-driven transition, gallery resolution, lead
// capture, persistence, and the lead alert. Exactly one of cb.OnComplete
// or cb.OnError fires. ErrSessionNotFound and ErrSessionBusy are returned
// before any callback.
func (m *SessionManager) HandleMessage(ctx context.Context, sessionID, text string, cb SessionCallbacks) error {
	sess, err := m.GetSession(sessionID)
	if err != nil {
		return err
	}
	if !m.acquireSession(sessionID) {
		slog.Warn("SessionManager.HandleMessage: session busy", "sessionID", sessionID)
		return ErrSessionBusy
	}
	defer m.releaseSession(sessionID)

	now := time.Now().UTC()
	sess.Messages = append(sess.Messages, models.Message{
		Role:      models.MessageRoleUser,
		Text:      text,
		Timestamp: now,
	})

	// Pre-transition bookkeeping: procedure interest is detected on every
	// turn; lead fields are read in the capture stage, or on every turn in
	// directed mode to seed the record early.
	if sess.ProcedureType == "" {
		if proc := extract.Procedure(text); proc != "" {
			sess.ProcedureType = proc
			slog.Debug("SessionManager.HandleMessage: procedure detected", "sessionID", sessionID, "procedure", proc)
		}
	}
	if sess.Stage == models.StageCapture || m.directed {
		delta := extract.LeadInfo(text, sess.LeadInfo)
		if sess.LeadInfo.Merge(delta) {
			slog.Debug("SessionManager.HandleMessage: lead fields updated", "sessionID", sessionID)
		}
	}

	history := make([]models.ChatMessage, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		if msg.Role == models.MessageRoleGallery {
			continue
		}
		history = append(history, models.ChatMessage{Role: msg.Role, Text: msg.Text})
	}

	m.advisor.StreamReply(ctx, sess.Stage, history, Callbacks{
		OnChunk: cb.OnChunk,
		OnComplete: func(cleanText string, citations []string, galleryDirective *models.GalleryDirective, nextStage *models.Stage) {
			m.completeTurn(ctx, sess, text, cleanText, citations, galleryDirective, nextStage, cb)
		},
		OnError: func(message string) {
			// The transcript records the connection apology so the session
			// stays usable; the caller gets the stream error frame.
			sess.Messages = append(sess.Messages, models.Message{
				Role:      models.MessageRoleAssistant,
				Text:      ConnectionErrorMessage,
				Timestamp: time.Now().UTC(),
			})
			sess.UpdatedAt = time.Now().UTC()
			m.persist(sess)
			if cb.OnError != nil {
				cb.OnError(message)
			}
		},
	})
	return nil
}

// completeTurn applies post-stream state: transcript, stage transition,
// gallery resolution, lead finalization, persistence.
func (m *SessionManager) completeTurn(ctx context.Context, sess *models.Session, userText, cleanText string, citations []string, galleryDirective *models.GalleryDirective, nextStage *models.Stage, cb SessionCallbacks) {
	now := time.Now().UTC()
	sess.Messages = append(sess.Messages, models.Message{
		Role:      models.MessageRoleAssistant,
		Text:      cleanText,
		Timestamp: now,
		Citations: citations,
	})

	prevStage := sess.Stage
	sess.Stage = m.resolver.NextStage(sess.Stage, userText, nextStage)

	// Rule-based mode has no model directive to leave capture, so the
	// funnel advances once a reachable contact is on file.
	if !m.directed && sess.Stage == models.StageCapture && sess.LeadInfo.HasContact() {
		sess.Stage = models.StageComplete
	}
	if sess.Stage != prevStage {
		slog.Info("SessionManager.completeTurn: stage transition", "sessionID", sess.ID, "from", prevStage, "to", sess.Stage)
	}

	var images []models.GalleryImage
	if galleryDirective != nil {
		images = m.gallery.Resolve(*galleryDirective)
		sess.Messages = append(sess.Messages, models.Message{
			Role:      models.MessageRoleGallery,
			Timestamp: now,
			Images:    images,
		})
	}

	// A session that reaches complete with a reachable contact produces
	// exactly one captured lead and one alert.
	if sess.Stage == models.StageComplete && !sess.LeadNotified && sess.LeadInfo.HasContact() {
		m.finalizeLead(ctx, sess)
	}

	sess.UpdatedAt = time.Now().UTC()
	m.persist(sess)

	if cb.OnComplete != nil {
		cb.OnComplete(TurnResult{
			Text:          cleanText,
			Citations:     citations,
			Gallery:       galleryDirective,
			GalleryImages: images,
			Stage:         sess.Stage,
			QuickReplies:  QuickReplies(sess.Stage, cleanText, sess.ProcedureType),
		})
	}
}

// finalizeLead persists the captured lead and fires the staff alert.
// Failures are logged; the conversation is never interrupted.
func (m *SessionManager) finalizeLead(ctx context.Context, sess *models.Session) {
	lead := models.Lead{
		ID:            util.GenerateLeadID(),
		SessionID:     sess.ID,
		Name:          sess.LeadInfo.Name,
		Phone:         sess.LeadInfo.Phone,
		Email:         sess.LeadInfo.Email,
		PreferredTime: sess.LeadInfo.PreferredTime,
		ProcedureType: sess.ProcedureType,
		CapturedAt:    time.Now().UTC(),
	}
	if err := m.store.SaveLead(lead); err != nil {
		slog.Error("SessionManager.finalizeLead: save failed", "error", err, "sessionID", sess.ID)
		return
	}
	sess.LeadNotified = true
	slog.Info("SessionManager.finalizeLead: lead captured", "leadID", lead.ID, "sessionID", sess.ID)

	if m.notifier != nil && m.notifier.HasChannels() {
		if err := m.notifier.NotifyLead(ctx, lead); err != nil {
			slog.Error("SessionManager.finalizeLead: alert failed", "error", err, "leadID", lead.ID)
		}
	}
}

// persist saves the session, logging failures. Sessions degrade to
// in-memory behavior when the store is unavailable.
func (m *SessionManager) persist(sess *models.Session) {
	if err := m.store.SaveSession(*sess); err != nil {
		slog.Error("SessionManager.persist: save failed", "error", err, "sessionID", sess.ID)
	}
}
