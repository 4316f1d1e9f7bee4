// Package scheduler runs background jobs for LeadAdvisor.
//
// Jobs (such as the staff lead digest) are scheduled with cron expressions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
)

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// leadDigestTimeout bounds one digest run, including store reads and
// channel delivery.
const leadDigestTimeout = 30 * time.Second

// LeadDigestJob returns a task that summarizes leads captured within the
// given window and broadcasts the summary to the notifier's channels.
// Windows with no new leads produce no message.
func LeadDigestJob(st store.Store, notifier *notify.Notifier, window time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), leadDigestTimeout)
		defer cancel()

		leads, err := st.ListLeads()
		if err != nil {
			slog.Error("Scheduler.LeadDigestJob: failed to list leads", "error", err)
			return
		}

		cutoff := time.Now().Add(-window)
		var recent []models.Lead
		for _, l := range leads {
			if l.CapturedAt.After(cutoff) {
				recent = append(recent, l)
			}
		}
		if len(recent) == 0 {
			slog.Debug("Scheduler.LeadDigestJob: no leads captured in window", "window", window)
			return
		}

		slog.Info("Scheduler.LeadDigestJob: sending lead digest", "leads", len(recent), "window", window)
		if err := notifier.Broadcast(ctx, notify.FormatLeadDigest(recent)); err != nil {
			slog.Error("Scheduler.LeadDigestJob: digest delivery failed", "error", err)
		}
	}
}
