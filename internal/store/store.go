// Package store provides storage backends for LeadAdvisor.
//
// It persists conversation sessions and captured leads, with SQLite and
// PostgreSQL implementations selected by DSN plus an in-memory store for
// tests and single-process deployments. Persistence is best-effort from the
// conversation's point of view: a failing store degrades the session to
// page-lifetime memory without breaking conversation correctness.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// Store defines the persistence operations used by the conversation flow.
type Store interface {
	SaveSession(s models.Session) error
	GetSession(id string) (*models.Session, error)
	DeleteSession(id string) error
	SaveLead(l models.Lead) error
	ListLeads() ([]models.Lead, error)
	Close() error
}

// Opts holds configuration options for persistent stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for persistent stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for everything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded in-process store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	leads    map[string]models.Lead
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		leads:    make(map[string]models.Lead),
	}
}

// SaveSession inserts or replaces a session.
func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// GetSession returns the session with the given ID, or nil when absent.
func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession removes a session. Deleting an absent session is a no-op.
func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// SaveLead inserts or replaces a captured lead.
func (s *InMemoryStore) SaveLead(l models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[l.ID] = l
	return nil
}

// ListLeads returns all captured leads ordered by capture time.
func (s *InMemoryStore) ListLeads() ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := make([]models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].CapturedAt.Before(leads[j].CapturedAt) })
	return leads, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
