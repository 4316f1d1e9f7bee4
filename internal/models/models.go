// Package models defines the core data structures for LeadAdvisor.
//
// It includes conversation messages, sessions, captured leads, gallery
// catalog entries, and the request/response DTOs shared across modules.
package models

import (
	"errors"
	"time"
)

// MessageRole identifies who produced a transcript entry.
type MessageRole string

const (
	// MessageRoleUser is a message typed by the visitor.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant is a reply generated by the advisor.
	MessageRoleAssistant MessageRole = "assistant"
	// MessageRoleGallery is a gallery event appended when images are shown.
	MessageRoleGallery MessageRole = "gallery-event"
)

// IsValidMessageRole checks if the given role is supported.
func IsValidMessageRole(r MessageRole) bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleGallery:
		return true
	default:
		return false
	}
}

// Message represents one exchange turn in a conversation transcript.
// Messages are immutable once appended to a session.
type Message struct {
	Role      MessageRole    `json:"role"`
	Text      string         `json:"text,omitempty"` // optional for gallery events
	Timestamp time.Time      `json:"timestamp"`
	Citations []string       `json:"citations,omitempty"`
	Images    []GalleryImage `json:"images,omitempty"`
}

// TimePreference values accepted for LeadInfo.PreferredTime.
const (
	TimePreferenceMorning   = "morning"
	TimePreferenceAfternoon = "afternoon"
)

// LeadInfo is the contact record accumulated over a conversation.
// Fields are union-merged turn over turn; a populated field is never
// overwritten by later extraction.
type LeadInfo struct {
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	PreferredTime string `json:"preferredTime,omitempty"` // morning or afternoon
	InterestLevel string `json:"interestLevel,omitempty"`
}

// Merge applies delta to l with first-write-wins semantics per field.
// It reports whether any field changed.
func (l *LeadInfo) Merge(delta LeadInfo) bool {
	changed := false
	if l.Name == "" && delta.Name != "" {
		l.Name = delta.Name
		changed = true
	}
	if l.Phone == "" && delta.Phone != "" {
		l.Phone = delta.Phone
		changed = true
	}
	if l.Email == "" && delta.Email != "" {
		l.Email = delta.Email
		changed = true
	}
	if l.PreferredTime == "" && delta.PreferredTime != "" {
		l.PreferredTime = delta.PreferredTime
		changed = true
	}
	if l.InterestLevel == "" && delta.InterestLevel != "" {
		l.InterestLevel = delta.InterestLevel
		changed = true
	}
	return changed
}

// IsEmpty reports whether no field has been captured yet.
func (l LeadInfo) IsEmpty() bool {
	return l == LeadInfo{}
}

// HasContact reports whether the record carries at least one way to reach
// the visitor.
func (l LeadInfo) HasContact() bool {
	return l.Phone != "" || l.Email != ""
}

// Session holds all state owned by a single conversation: the transcript,
// the current funnel stage, and the accumulated lead record. Stage is
// mutated exclusively through the flow package.
type Session struct {
	ID            string    `json:"id"`
	Stage         Stage     `json:"stage"`
	Messages      []Message `json:"messages"`
	LeadInfo      LeadInfo  `json:"leadInfo"`
	ProcedureType string    `json:"procedureType,omitempty"`
	UserConcerns  []string  `json:"userConcerns,omitempty"`
	LeadNotified  bool      `json:"leadNotified,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Lead is a finalized contact record handed to the practice intake team.
type Lead struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	Name          string    `json:"name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	PreferredTime string    `json:"preferredTime,omitempty"`
	ProcedureType string    `json:"procedureType,omitempty"`
	CapturedAt    time.Time `json:"capturedAt"`
}

// GalleryType classifies catalog entries and gallery directives.
type GalleryType string

const (
	GalleryTypeBeforeAfter         GalleryType = "before_after"
	GalleryTypeProcedureSteps      GalleryType = "procedure_steps"
	GalleryTypeFacilityTour        GalleryType = "facility_tour"
	GalleryTypeDoctorCredentials   GalleryType = "doctor_credentials"
	GalleryTypeTechniqueComparison GalleryType = "technique_comparison"
)

// IsValidGalleryType checks if the given gallery type is supported.
func IsValidGalleryType(t GalleryType) bool {
	switch t {
	case GalleryTypeBeforeAfter, GalleryTypeProcedureSteps, GalleryTypeFacilityTour,
		GalleryTypeDoctorCredentials, GalleryTypeTechniqueComparison:
		return true
	default:
		return false
	}
}

// GalleryImage is a static catalog entry. Before/After are set for paired
// comparisons; Image is set for single shots (facility, credentials).
type GalleryImage struct {
	Before      string      `json:"before,omitempty"`
	After       string      `json:"after,omitempty"`
	Image       string      `json:"image,omitempty"`
	Caption     string      `json:"caption"`
	Procedure   string      `json:"procedure,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	AgeRange    string      `json:"ageRange,omitempty"`
	Description string      `json:"description,omitempty"`
	CaseID      string      `json:"caseId,omitempty"`
	Type        GalleryType `json:"type"`
}

// Validation constants for inbound chat requests.
const (
	// MaxMessageTextLength bounds a single message body.
	MaxMessageTextLength = 4096
	// MaxHistoryMessages bounds the transcript accepted per request.
	MaxHistoryMessages = 200
)

// Error variables for request validation.
var (
	ErrNoMessages      = errors.New("at least one message is required")
	ErrTooManyMessages = errors.New("message history exceeds maximum length")
	ErrInvalidRole     = errors.New("message role must be user, assistant, or gallery-event")
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrMessageTooLong  = errors.New("message text exceeds maximum length")
	ErrInvalidStage    = errors.New("invalid conversation stage")
)

// ChatMessage is one turn of caller-supplied history for the chat endpoint.
type ChatMessage struct {
	Role MessageRole `json:"role"`
	Text string      `json:"text"`
}

// ChatRequest is the body of POST /chat: the rolled-up message history and
// the caller's current funnel stage.
type ChatRequest struct {
	Messages          []ChatMessage `json:"messages"`
	ConversationState string        `json:"conversationState"`
}

// Validate performs validation on a ChatRequest.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	if len(r.Messages) > MaxHistoryMessages {
		return ErrTooManyMessages
	}
	for _, m := range r.Messages {
		if !IsValidMessageRole(m.Role) {
			return ErrInvalidRole
		}
		if m.Role != MessageRoleGallery && m.Text == "" {
			return ErrEmptyMessage
		}
		if len(m.Text) > MaxMessageTextLength {
			return ErrMessageTooLong
		}
	}
	if r.ConversationState != "" && !IsValidStage(Stage(r.ConversationState)) {
		return ErrInvalidStage
	}
	return nil
}

// Stage returns the validated stage of the request, defaulting to welcome
// when the caller did not supply one.
func (r *ChatRequest) Stage() Stage {
	if r.ConversationState == "" {
		return StageWelcome
	}
	return Stage(r.ConversationState)
}

// SessionMessageRequest is the body of POST /sessions/{id}/messages.
type SessionMessageRequest struct {
	Text string `json:"text"`
}

// Validate performs validation on a SessionMessageRequest.
func (r *SessionMessageRequest) Validate() error {
	if r.Text == "" {
		return ErrEmptyMessage
	}
	if len(r.Text) > MaxMessageTextLength {
		return ErrMessageTooLong
	}
	return nil
}
