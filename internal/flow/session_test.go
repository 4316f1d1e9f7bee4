package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/openai/openai-go"

	"github.com/ClevensDigital/LeadAdvisor/internal/gallery"
	"github.com/ClevensDigital/LeadAdvisor/internal/genai"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
)

func newTestManager(t *testing.T, client genai.ClientInterface, directed bool) (*SessionManager, *store.InMemoryStore, *notify.MockSender) {
	t.Helper()
	st := store.NewInMemoryStore()
	resolver, err := gallery.NewResolver()
	if err != nil {
		t.Fatalf("gallery.NewResolver failed: %v", err)
	}
	sender := notify.NewMockSender()
	notifier := notify.NewNotifier()
	notifier.AddChannel("sms", sender, "+15559876543")
	var stageResolver NextStageResolver
	if directed {
		stageResolver = NewDirectedResolver()
	} else {
		stageResolver = NewRuleBasedResolver()
	}
	m := NewSessionManager(st, NewAdvisor(client, directed), resolver, stageResolver, notifier, directed)
	return m, st, sender
}

func TestCreateSessionGreeting(t *testing.T) {
	m, st, _ := newTestManager(t, &fakeGenAI{}, false)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.Stage != models.StageWelcome {
		t.Errorf("expected welcome stage, got %s", sess.Stage)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Text != GreetingMessage {
		t.Errorf("expected greeting transcript, got %+v", sess.Messages)
	}

	stored, err := st.GetSession(sess.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected session persisted, got %v, %v", stored, err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeGenAI{}, false)
	if _, err := m.GetSession("sess_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestHandleMessageFullTurn(t *testing.T) {
	client := &fakeGenAI{chunks: []string{
		"Here are some results [2]. ",
		`{"action":{"show_gallery":true,"gallery_type":"before_after","procedure_type":"rhinoplasty","image_count":2}}`,
	}}
	m, st, _ := newTestManager(t, client, false)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	// Move past welcome so the gallery keyword rule applies.
	sess.Stage = models.StageEducation
	if err := st.SaveSession(*sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	var result TurnResult
	var completed bool
	err = m.HandleMessage(context.Background(), sess.ID, "I'm interested in rhinoplasty, show me before and after photos", SessionCallbacks{
		OnComplete: func(r TurnResult) { completed = true; result = r },
		OnError:    func(message string) { t.Errorf("unexpected error: %s", message) },
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !completed {
		t.Fatal("expected OnComplete to fire")
	}
	if result.Stage != models.StageGallery {
		t.Errorf("expected gallery stage, got %s", result.Stage)
	}
	if result.Gallery == nil {
		t.Fatal("expected gallery directive in result")
	}
	if len(result.GalleryImages) == 0 {
		t.Error("expected resolved gallery images")
	}
	if len(result.Citations) != 1 || result.Citations[0] != "Rhinoplasty Recovery Guide" {
		t.Errorf("unexpected citations %v", result.Citations)
	}
	if len(result.QuickReplies) == 0 {
		t.Error("expected quick replies")
	}

	stored, err := m.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.ProcedureType != "rhinoplasty" {
		t.Errorf("expected procedure detected, got %q", stored.ProcedureType)
	}
	if stored.Stage != models.StageGallery {
		t.Errorf("expected persisted stage gallery, got %s", stored.Stage)
	}
	// greeting + user + assistant + gallery event
	if len(stored.Messages) != 4 {
		t.Fatalf("expected 4 transcript entries, got %d", len(stored.Messages))
	}
	if stored.Messages[3].Role != models.MessageRoleGallery {
		t.Errorf("expected gallery event last, got %s", stored.Messages[3].Role)
	}
}

func TestHandleMessageStreamFailure(t *testing.T) {
	client := &fakeGenAI{err: errors.New("reset by peer")}
	m, _, _ := newTestManager(t, client, false)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var errored bool
	err = m.HandleMessage(context.Background(), sess.ID, "hello", SessionCallbacks{
		OnComplete: func(TurnResult) { t.Error("OnComplete must not fire on failure") },
		OnError: func(message string) {
			errored = true
			if message != StreamErrorMessage {
				t.Errorf("unexpected message %q", message)
			}
		},
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !errored {
		t.Fatal("expected OnError to fire")
	}

	// Session stays usable: transcript records the apology and the stage
	// did not move.
	stored, err := m.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Stage != models.StageWelcome {
		t.Errorf("expected stage unchanged, got %s", stored.Stage)
	}
	last := stored.Messages[len(stored.Messages)-1]
	if last.Text != ConnectionErrorMessage {
		t.Errorf("expected connection apology in transcript, got %q", last.Text)
	}
}

func TestHandleMessageUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeGenAI{}, false)
	err := m.HandleMessage(context.Background(), "sess_missing", "hi", SessionCallbacks{})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestHandleMessageBusyGuard(t *testing.T) {
	client := &blockingGenAI{
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	m, _, _ := newTestManager(t, client, false)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.HandleMessage(context.Background(), sess.ID, "first", SessionCallbacks{})
	}()
	<-client.started

	err = m.HandleMessage(context.Background(), sess.ID, "second", SessionCallbacks{})
	if !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}

	close(client.release)
	wg.Wait()

	// Guard is released after the turn finishes; a closed release channel
	// no longer blocks.
	if err := m.HandleMessage(context.Background(), sess.ID, "third", SessionCallbacks{}); err != nil {
		t.Errorf("expected guard released, got %v", err)
	}
}

func TestLeadCapturedAndNotifiedOnce(t *testing.T) {
	client := &fakeGenAI{chunks: []string{"Thank you! We'll be in touch soon."}}
	m, st, sender := newTestManager(t, client, true)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	sess.Stage = models.StageCapture
	sess.LeadInfo = models.LeadInfo{Name: "Sarah Johnson"}
	sess.ProcedureType = "rhinoplasty"
	if err := st.SaveSession(*sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// Directed mode: the model ends the funnel itself.
	client.chunks = append(client.chunks, `{"next_state":"complete"}`)

	err = m.HandleMessage(context.Background(), sess.ID, "My number is (555) 123-4567", SessionCallbacks{
		OnError: func(message string) { t.Errorf("unexpected error: %s", message) },
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	leads, err := m.ListLeads()
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 captured lead, got %d", len(leads))
	}
	if leads[0].Phone != "(555) 123-4567" {
		t.Errorf("expected extracted phone, got %q", leads[0].Phone)
	}
	if leads[0].ProcedureType != "rhinoplasty" {
		t.Errorf("expected procedure on lead, got %q", leads[0].ProcedureType)
	}
	if len(sender.SentMessages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(sender.SentMessages))
	}

	// A second turn in the complete stage must not re-capture or re-alert.
	err = m.HandleMessage(context.Background(), sess.ID, "Thanks again!", SessionCallbacks{})
	if err != nil {
		t.Fatalf("second HandleMessage failed: %v", err)
	}
	leads, _ = m.ListLeads()
	if len(leads) != 1 {
		t.Errorf("expected lead captured once, got %d", len(leads))
	}
	if len(sender.SentMessages) != 1 {
		t.Errorf("expected single alert, got %d", len(sender.SentMessages))
	}
}

func TestRuleBasedCaptureCompletesLead(t *testing.T) {
	client := &fakeGenAI{chunks: []string{"Thank you! Our team will reach out shortly."}}
	m, st, sender := newTestManager(t, client, false)
	sess, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	sess.Stage = models.StageCapture
	sess.LeadInfo = models.LeadInfo{Name: "Sarah Johnson"}
	if err := st.SaveSession(*sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// No next_state directive in rule-based mode; the contact on file is
	// what ends the capture stage.
	err = m.HandleMessage(context.Background(), sess.ID, "My number is (555) 123-4567", SessionCallbacks{
		OnComplete: func(result TurnResult) {
			if result.Stage != models.StageComplete {
				t.Errorf("expected complete stage after capture, got %s", result.Stage)
			}
		},
		OnError: func(message string) { t.Errorf("unexpected error: %s", message) },
	})
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	stored, err := st.GetSession(sess.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Stage != models.StageComplete {
		t.Errorf("expected persisted complete stage, got %s", stored.Stage)
	}

	leads, err := m.ListLeads()
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 captured lead, got %d", len(leads))
	}
	if leads[0].Name != "Sarah Johnson" || leads[0].Phone != "(555) 123-4567" {
		t.Errorf("unexpected lead fields: %+v", leads[0])
	}
	if len(sender.SentMessages) != 1 {
		t.Errorf("expected 1 alert, got %d", len(sender.SentMessages))
	}
}

// blockingGenAI blocks in StreamWithMessages until released, for testing
// the per-session in-flight guard.
type blockingGenAI struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return "", nil
}

func (b *blockingGenAI) StreamWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, onDelta func(delta, accumulated string)) (string, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return "ok", nil
}
