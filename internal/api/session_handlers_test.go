package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// createTestSession drives POST /sessions and returns the new session ID.
func createTestSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Result struct {
			Session      models.Session `json:"session"`
			QuickReplies []string       `json:"quickReplies"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.Session.ID == "" {
		t.Fatal("expected session ID in response")
	}
	if len(resp.Result.QuickReplies) == 0 {
		t.Error("expected initial quick replies")
	}
	if len(resp.Result.Session.Messages) != 1 {
		t.Errorf("expected greeting in transcript, got %d messages", len(resp.Result.Session.Messages))
	}
	return resp.Result.Session.ID
}

func TestSessionLifecycle(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{chunks: []string{"Hello!"}})
	handler := server.Handler()

	id := createTestSession(t, handler)

	// GET returns the session.
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}

	// DELETE removes it.
	req = httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}

	// GET now 404s.
	req = httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestSessionMessageStreamsAugmentedComplete(t *testing.T) {
	client := &fakeGenAI{chunks: []string{
		"Here are some rhinoplasty results [2]. ",
		`{"action":{"show_gallery":true,"gallery_type":"before_after","procedure_type":"rhinoplasty","image_count":2}}`,
	}}
	server := newTestServer(t, client)
	handler := server.Handler()
	id := createTestSession(t, handler)

	rr := postJSON(t, handler, "/sessions/"+id+"/messages", models.SessionMessageRequest{
		Text: "I'm interested in rhinoplasty, show me examples",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	frames := parseSSEFrames(t, rr.Body.String())
	if len(frames) < 2 {
		t.Fatalf("expected delta + complete frames, got %d", len(frames))
	}
	final := frames[len(frames)-1]
	if final["type"] != "complete" {
		t.Fatalf("expected complete frame, got %v", final["type"])
	}
	images, ok := final["galleryImages"].([]interface{})
	if !ok || len(images) == 0 {
		t.Errorf("expected resolved gallery images, got %v", final["galleryImages"])
	}
	picks, ok := final["quickReplies"].([]interface{})
	if !ok || len(picks) == 0 {
		t.Errorf("expected quick replies, got %v", final["quickReplies"])
	}
	if final["nextState"] == nil {
		t.Error("expected nextState on stateful complete frame")
	}
}

func TestSessionMessageUnknownSession(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{})
	rr := postJSON(t, server.Handler(), "/sessions/sess_missing/messages", models.SessionMessageRequest{Text: "hi"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestSessionMessageValidation(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{})
	handler := server.Handler()
	id := createTestSession(t, handler)

	rr := postJSON(t, handler, "/sessions/"+id+"/messages", models.SessionMessageRequest{Text: ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty text, got %d", rr.Code)
	}
}

func TestSessionQuickReplies(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{})
	handler := server.Handler()
	id := createTestSession(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/quickreplies", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Status string   `json:"status"`
		Result []string `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Result) == 0 {
		t.Error("expected quick replies")
	}
}

func TestQuickRepliesByState(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{})
	handler := server.Handler()

	req := httptest.NewRequest(http.MethodGet, "/quickreplies?state=booking", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Result []string `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Result) == 0 || resp.Result[0] != "Yes, book me" {
		t.Errorf("expected booking picks, got %v", resp.Result)
	}

	req = httptest.NewRequest(http.MethodGet, "/quickreplies?state=nonsense", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown state, got %d", rr.Code)
	}
}

func TestLeadsEmptyList(t *testing.T) {
	server := newTestServer(t, &fakeGenAI{})
	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Status string        `json:"status"`
		Result []models.Lead `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result == nil {
		t.Error("expected empty array, not null")
	}
}
