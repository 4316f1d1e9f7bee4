// Package models defines API response types for consistent JSON responses.
package models

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed operation.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Stream event types emitted on the SSE chat endpoints.
const (
	StreamEventTextDelta = "text_delta"
	StreamEventComplete  = "complete"
	StreamEventError     = "error"
)

// TextDeltaEvent is emitted zero or more times per request, in arrival
// order, carrying one provider chunk and the accumulation so far.
type TextDeltaEvent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	FullText string `json:"fullText"`
}

// NewTextDeltaEvent builds a text_delta stream frame.
func NewTextDeltaEvent(text, fullText string) TextDeltaEvent {
	return TextDeltaEvent{Type: StreamEventTextDelta, Text: text, FullText: fullText}
}

// CompleteEvent is the single terminal frame of a successful stream. The
// galleryAction and nextState fields are explicitly null when absent so the
// front end can distinguish "no directive" from "field missing".
type CompleteEvent struct {
	Type          string            `json:"type"`
	FullText      string            `json:"fullText"`
	Citations     []string          `json:"citations"`
	GalleryAction *GalleryDirective `json:"galleryAction"`
	NextState     *string           `json:"nextState"`
	GalleryImages []GalleryImage    `json:"galleryImages,omitempty"`
	QuickReplies  []string          `json:"quickReplies,omitempty"`
}

// NewCompleteEvent builds a complete stream frame. Citations are never null,
// only empty.
func NewCompleteEvent(fullText string, citations []string, gallery *GalleryDirective, nextState *Stage) CompleteEvent {
	if citations == nil {
		citations = []string{}
	}
	ev := CompleteEvent{
		Type:          StreamEventComplete,
		FullText:      fullText,
		Citations:     citations,
		GalleryAction: gallery,
	}
	if nextState != nil {
		s := string(*nextState)
		ev.NextState = &s
	}
	return ev
}

// ErrorEvent is the single terminal frame of a failed stream. It is emitted
// instead of, never in addition to, a complete frame.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error stream frame.
func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: StreamEventError, Message: message}
}
