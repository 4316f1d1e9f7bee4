// Package testutil provides common test utilities and helpers for LeadAdvisor tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"

	"github.com/ClevensDigital/LeadAdvisor/internal/api"
	"github.com/ClevensDigital/LeadAdvisor/internal/flow"
	"github.com/ClevensDigital/LeadAdvisor/internal/gallery"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
)

// TestReporter is the subset of testing.T the assertion helpers need. It
// exists so the helpers themselves can be tested against a mock reporter.
type TestReporter interface {
	Helper()
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// ScriptedGenAI is a model client fake that replays a fixed chunk script.
// Streaming delivers the chunks one onDelta call each; one-shot generation
// returns their concatenation.
type ScriptedGenAI struct {
	Chunks []string
	Err    error
}

// GenerateWithMessages returns the concatenated script.
func (s *ScriptedGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	var full string
	for _, c := range s.Chunks {
		full += c
	}
	return full, nil
}

// StreamWithMessages replays the script through onDelta.
func (s *ScriptedGenAI) StreamWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, onDelta func(delta, accumulated string)) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	var full string
	for _, c := range s.Chunks {
		full += c
		onDelta(c, full)
	}
	return full, nil
}

// NewTestServer creates a test API server with in-memory dependencies. The
// model client replays the given chunks on every turn. This centralizes the
// server wiring used across test files.
func NewTestServer(t *testing.T, chunks ...string) *api.Server {
	t.Helper()
	client := &ScriptedGenAI{Chunks: chunks}
	advisor := flow.NewAdvisor(client, false)
	galleryResolver, err := gallery.NewResolver()
	if err != nil {
		t.Fatalf("failed to build gallery resolver: %v", err)
	}
	st := store.NewInMemoryStore()
	sessions := flow.NewSessionManager(st, advisor, galleryResolver, flow.NewRuleBasedResolver(), notify.NewNotifier(), false)
	return api.NewServer(sessions, advisor)
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t TestReporter, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes the standard response envelope and validates
// the status field.
func AssertJSONResponse(t TestReporter, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t TestReporter, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// ParseSSEFrames splits an SSE response body into its decoded JSON events.
func ParseSSEFrames(t TestReporter, body string) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for _, block := range bytes.Split([]byte(body), []byte("\n\n")) {
		line := bytes.TrimSpace(block)
		if len(line) == 0 {
			continue
		}
		if !bytes.HasPrefix(line, []byte("data: ")) {
			t.Fatalf("SSE block missing data prefix: %q", line)
		}
		var frame map[string]interface{}
		if err := json.Unmarshal(bytes.TrimPrefix(line, []byte("data: ")), &frame); err != nil {
			t.Fatalf("failed to decode SSE frame %q: %v", line, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

// AssertLeadCount validates the number of stored leads matches expected.
func AssertLeadCount(t TestReporter, st store.Store, expected int, context string) {
	t.Helper()
	leads, err := st.ListLeads()
	if err != nil {
		t.Fatalf("%s: failed to list leads: %v", context, err)
	}
	if len(leads) != expected {
		t.Errorf("%s: expected %d leads, got %d", context, expected, len(leads))
	}
}

// SeedLeads adds numbered sample leads to the store for testing.
func SeedLeads(t TestReporter, st store.Store, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		l := models.Lead{
			ID:        fmt.Sprintf("lead_%04d", i),
			SessionID: fmt.Sprintf("sess_%04d", i),
			Name:      fmt.Sprintf("Patient %d", i),
			Phone:     fmt.Sprintf("+1555000%04d", i),
		}
		if err := st.SaveLead(l); err != nil {
			t.Fatalf("failed to seed lead %d: %v", i, err)
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t TestReporter, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t TestReporter, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
