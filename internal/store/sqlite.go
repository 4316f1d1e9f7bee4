// Package store provides storage backends for LeadAdvisor.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions and leads in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is
// a file path to the database file; the containing directory is created if
// it doesn't exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewSQLiteStore: invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("store.NewSQLiteStore: DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("store.NewSQLiteStore: failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("store.NewSQLiteStore: failed to open database", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("store.NewSQLiteStore: ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("store.NewSQLiteStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewSQLiteStore: migrations applied")

	return &SQLiteStore{db: db}, nil
}

// SaveSession inserts or replaces a session row.
func (s *SQLiteStore) SaveSession(sess models.Session) error {
	messages, leadInfo, concerns, err := marshalSessionFields(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO sessions
		(id, stage, messages, lead_info, procedure_type, user_concerns, lead_notified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Stage), messages, leadInfo, nilIfEmpty(sess.ProcedureType),
		concerns, sess.LeadNotified, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore.SaveSession: insert failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("SQLiteStore.SaveSession: succeeded", "sessionID", sess.ID, "stage", sess.Stage)
	return nil
}

// GetSession returns the session with the given ID, or nil when absent.
func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, stage, messages, lead_info, procedure_type, user_concerns, lead_notified, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetSession: scan failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

// DeleteSession removes a session row.
func (s *SQLiteStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore.DeleteSession: delete failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// SaveLead inserts or replaces a captured lead row.
func (s *SQLiteStore) SaveLead(l models.Lead) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO leads
		(id, session_id, name, phone, email, preferred_time, procedure_type, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SessionID, nilIfEmpty(l.Name), nilIfEmpty(l.Phone), nilIfEmpty(l.Email),
		nilIfEmpty(l.PreferredTime), nilIfEmpty(l.ProcedureType), l.CapturedAt)
	if err != nil {
		slog.Error("SQLiteStore.SaveLead: insert failed", "error", err, "leadID", l.ID)
		return fmt.Errorf("failed to save lead %s: %w", l.ID, err)
	}
	slog.Debug("SQLiteStore.SaveLead: succeeded", "leadID", l.ID, "sessionID", l.SessionID)
	return nil
}

// ListLeads returns all captured leads ordered by capture time.
func (s *SQLiteStore) ListLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT id, session_id, name, phone, email, preferred_time, procedure_type, captured_at
		FROM leads ORDER BY captured_at`)
	if err != nil {
		slog.Error("SQLiteStore.ListLeads: query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()
	return collectLeads(rows)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
