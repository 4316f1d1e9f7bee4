package store

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// DefaultSessionCacheSize bounds the number of sessions kept in memory by
// CachedStore.
const DefaultSessionCacheSize = 1024

// CachedStore wraps a Store with an LRU session cache so that the hot path
// (one read plus one write per chat turn) avoids the database on reads.
// Writes go through to the backing store; the cache is updated on success.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, models.Session]
}

// NewCachedStore wraps backend with a session cache of the given size.
// A size of zero or less uses DefaultSessionCacheSize.
func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultSessionCacheSize
	}
	cache, err := lru.New[string, models.Session](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	slog.Debug("store.NewCachedStore: created", "size", size)
	return &CachedStore{backend: backend, cache: cache}, nil
}

// SaveSession writes through to the backing store and refreshes the cache.
func (s *CachedStore) SaveSession(sess models.Session) error {
	if err := s.backend.SaveSession(sess); err != nil {
		return err
	}
	s.cache.Add(sess.ID, sess)
	return nil
}

// GetSession serves from the cache when possible, falling back to the
// backing store and populating the cache on a hit there.
func (s *CachedStore) GetSession(id string) (*models.Session, error) {
	if sess, ok := s.cache.Get(id); ok {
		return &sess, nil
	}
	sess, err := s.backend.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		s.cache.Add(id, *sess)
	}
	return sess, nil
}

// DeleteSession removes the session from both the cache and the backing
// store.
func (s *CachedStore) DeleteSession(id string) error {
	s.cache.Remove(id)
	return s.backend.DeleteSession(id)
}

// SaveLead delegates to the backing store; leads are not cached.
func (s *CachedStore) SaveLead(l models.Lead) error {
	return s.backend.SaveLead(l)
}

// ListLeads delegates to the backing store.
func (s *CachedStore) ListLeads() ([]models.Lead, error) {
	return s.backend.ListLeads()
}

// Close purges the cache and closes the backing store.
func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}
