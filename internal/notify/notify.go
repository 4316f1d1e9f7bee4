// Package notify delivers lead alerts to practice staff.
//
// When a conversation produces a complete contact record, a one-line lead
// summary is sent over the configured channels (Twilio SMS, WhatsApp).
// Delivery is best-effort: failures are logged and never surface to the
// conversation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// Sender delivers one text message to a recipient. Implementations exist
// for Twilio SMS and WhatsApp.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Notifier fans a lead summary out to all configured channels.
type Notifier struct {
	senders []channel
}

type channel struct {
	name   string
	sender Sender
	to     string
}

// NewNotifier creates an empty notifier. Channels are attached with
// AddChannel.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// AddChannel registers a delivery channel with its staff recipient. The
// name is used for logging only.
func (n *Notifier) AddChannel(name string, sender Sender, to string) {
	n.senders = append(n.senders, channel{name: name, sender: sender, to: to})
	slog.Debug("Notifier.AddChannel: channel registered", "channel", name)
}

// HasChannels reports whether any delivery channel is configured.
func (n *Notifier) HasChannels() bool {
	return len(n.senders) > 0
}

// FormatLead renders the one-line staff summary for a captured lead.
func FormatLead(l models.Lead) string {
	var parts []string
	if l.Name != "" {
		parts = append(parts, l.Name)
	}
	if l.Phone != "" {
		parts = append(parts, l.Phone)
	}
	if l.Email != "" {
		parts = append(parts, l.Email)
	}
	if l.PreferredTime != "" {
		parts = append(parts, "prefers "+l.PreferredTime)
	}

	header := "New lead"
	if l.ProcedureType != "" {
		header = fmt.Sprintf("New lead (%s)", l.ProcedureType)
	}
	if len(parts) == 0 {
		return header
	}
	return header + ": " + strings.Join(parts, ", ")
}

// FormatLeadDigest renders a multi-line staff summary of recently captured
// leads, one line per lead.
func FormatLeadDigest(leads []models.Lead) string {
	if len(leads) == 0 {
		return "Lead digest: no new leads"
	}
	header := fmt.Sprintf("Lead digest: %d new leads", len(leads))
	if len(leads) == 1 {
		header = "Lead digest: 1 new lead"
	}
	lines := []string{header}
	for _, l := range leads {
		lines = append(lines, "- "+FormatLead(l))
	}
	return strings.Join(lines, "\n")
}

// NotifyLead sends the lead summary to every configured channel. Errors are
// logged per channel and the first one is returned so callers can record
// the failure; the conversation flow ignores it.
func (n *Notifier) NotifyLead(ctx context.Context, l models.Lead) error {
	if len(n.senders) == 0 {
		slog.Debug("Notifier.NotifyLead: no channels configured", "leadID", l.ID)
		return nil
	}
	return n.Broadcast(ctx, FormatLead(l))
}

// Broadcast sends a staff message to every configured channel. Delivery
// continues past individual channel failures; the first error is returned.
func (n *Notifier) Broadcast(ctx context.Context, body string) error {
	var firstErr error
	for _, ch := range n.senders {
		if err := ch.sender.SendMessage(ctx, ch.to, body); err != nil {
			slog.Error("Notifier.Broadcast: channel delivery failed", "channel", ch.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		slog.Info("Notifier.Broadcast: message sent", "channel", ch.name)
	}
	return firstErr
}

// MockSender records sent messages for tests.
type MockSender struct {
	SentMessages []SentMessage
	Err          error
}

// SentMessage is one recorded delivery.
type SentMessage struct {
	To   string
	Body string
}

// NewMockSender creates an empty mock sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendMessage records the message, returning the configured error if set.
func (m *MockSender) SendMessage(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}
