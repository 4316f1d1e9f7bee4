package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// rowScanner abstracts *sql.Row and *sql.Rows for session scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// marshalSessionFields serializes the JSON-encoded session columns.
func marshalSessionFields(s models.Session) (messages, leadInfo, concerns []byte, err error) {
	messages, err = json.Marshal(s.Messages)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	leadInfo, err = json.Marshal(s.LeadInfo)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal lead info: %w", err)
	}
	concerns, err = json.Marshal(s.UserConcerns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal user concerns: %w", err)
	}
	return messages, leadInfo, concerns, nil
}

// scanSession decodes one session row, including the JSON-encoded columns.
func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s             models.Session
		stage         string
		messages      []byte
		leadInfo      []byte
		concerns      []byte
		procedureType sql.NullString
	)
	if err := row.Scan(&s.ID, &stage, &messages, &leadInfo, &procedureType, &concerns,
		&s.LeadNotified, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Stage = models.Stage(stage)
	s.ProcedureType = procedureType.String
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &s.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}
	if len(leadInfo) > 0 {
		if err := json.Unmarshal(leadInfo, &s.LeadInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lead info: %w", err)
		}
	}
	if len(concerns) > 0 {
		if err := json.Unmarshal(concerns, &s.UserConcerns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user concerns: %w", err)
		}
	}
	return &s, nil
}

// collectLeads drains a lead query result set.
func collectLeads(rows *sql.Rows) ([]models.Lead, error) {
	var leads []models.Lead
	for rows.Next() {
		var (
			l             models.Lead
			name          sql.NullString
			phone         sql.NullString
			email         sql.NullString
			preferredTime sql.NullString
			procedureType sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.SessionID, &name, &phone, &email,
			&preferredTime, &procedureType, &l.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		l.Name = name.String
		l.Phone = phone.String
		l.Email = email.String
		l.PreferredTime = preferredTime.String
		l.ProcedureType = procedureType.String
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

// nilIfEmpty maps an empty string to SQL NULL.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
