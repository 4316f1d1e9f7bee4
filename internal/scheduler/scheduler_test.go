package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
)

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	// Should add a valid cron job without error
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
}

func TestSchedulerAddJobInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("not a cron expression", func() {}); err == nil {
		t.Error("Expected error for invalid cron expression, got nil")
	}
}

func TestLeadDigestJobSendsRecentLeads(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := notify.NewMockSender()
	notifier := notify.NewNotifier()
	notifier.AddChannel("sms", sender, "+15559876543")

	now := time.Now()
	leads := []models.Lead{
		{ID: "lead_old", SessionID: "sess_1", Email: "old@example.com", CapturedAt: now.Add(-48 * time.Hour)},
		{ID: "lead_new", SessionID: "sess_2", Name: "Sarah", Phone: "(555) 123-4567", ProcedureType: "rhinoplasty", CapturedAt: now.Add(-time.Hour)},
	}
	for _, l := range leads {
		if err := st.SaveLead(l); err != nil {
			t.Fatalf("SaveLead failed: %v", err)
		}
	}

	LeadDigestJob(st, notifier, 24*time.Hour)()

	if len(sender.SentMessages) != 1 {
		t.Fatalf("expected 1 digest message, got %d", len(sender.SentMessages))
	}
	body := sender.SentMessages[0].Body
	if !strings.Contains(body, "Lead digest: 1 new lead") {
		t.Errorf("digest header missing from body: %q", body)
	}
	if !strings.Contains(body, "Sarah") || !strings.Contains(body, "rhinoplasty") {
		t.Errorf("digest should include the recent lead, got %q", body)
	}
	if strings.Contains(body, "old@example.com") {
		t.Errorf("digest should exclude leads outside the window, got %q", body)
	}
}

func TestLeadDigestJobSkipsEmptyWindow(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := notify.NewMockSender()
	notifier := notify.NewNotifier()
	notifier.AddChannel("sms", sender, "+15559876543")

	LeadDigestJob(st, notifier, 24*time.Hour)()

	if len(sender.SentMessages) != 0 {
		t.Errorf("expected no digest for empty window, got %d messages", len(sender.SentMessages))
	}
}
