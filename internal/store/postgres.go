package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions and leads in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewPostgresStore: invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("store.NewPostgresStore: DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("store.NewPostgresStore: failed to open database", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("store.NewPostgresStore: ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("store.NewPostgresStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewPostgresStore: migrations applied")

	return &PostgresStore{db: db}, nil
}

// SaveSession upserts a session row.
func (s *PostgresStore) SaveSession(sess models.Session) error {
	messages, leadInfo, concerns, err := marshalSessionFields(sess)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO sessions
		(id, stage, messages, lead_info, procedure_type, user_concerns, lead_notified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			stage = EXCLUDED.stage,
			messages = EXCLUDED.messages,
			lead_info = EXCLUDED.lead_info,
			procedure_type = EXCLUDED.procedure_type,
			user_concerns = EXCLUDED.user_concerns,
			lead_notified = EXCLUDED.lead_notified,
			updated_at = EXCLUDED.updated_at`,
		sess.ID, string(sess.Stage), messages, leadInfo, nilIfEmpty(sess.ProcedureType),
		concerns, sess.LeadNotified, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveSession: upsert failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	slog.Debug("PostgresStore.SaveSession: succeeded", "sessionID", sess.ID, "stage", sess.Stage)
	return nil
}

// GetSession returns the session with the given ID, or nil when absent.
func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, stage, messages, lead_info, procedure_type, user_concerns, lead_notified, created_at, updated_at
		FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetSession: scan failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return sess, nil
}

// DeleteSession removes a session row.
func (s *PostgresStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = $1`, id); err != nil {
		slog.Error("PostgresStore.DeleteSession: delete failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// SaveLead upserts a captured lead row.
func (s *PostgresStore) SaveLead(l models.Lead) error {
	_, err := s.db.Exec(`INSERT INTO leads
		(id, session_id, name, phone, email, preferred_time, procedure_type, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			preferred_time = EXCLUDED.preferred_time,
			procedure_type = EXCLUDED.procedure_type`,
		l.ID, l.SessionID, nilIfEmpty(l.Name), nilIfEmpty(l.Phone), nilIfEmpty(l.Email),
		nilIfEmpty(l.PreferredTime), nilIfEmpty(l.ProcedureType), l.CapturedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveLead: upsert failed", "error", err, "leadID", l.ID)
		return fmt.Errorf("failed to save lead %s: %w", l.ID, err)
	}
	slog.Debug("PostgresStore.SaveLead: succeeded", "leadID", l.ID, "sessionID", l.SessionID)
	return nil
}

// ListLeads returns all captured leads ordered by capture time.
func (s *PostgresStore) ListLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT id, session_id, name, phone, email, preferred_time, procedure_type, captured_at
		FROM leads ORDER BY captured_at`)
	if err != nil {
		slog.Error("PostgresStore.ListLeads: query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()
	return collectLeads(rows)
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
