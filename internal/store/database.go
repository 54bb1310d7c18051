package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"luxury-leads-backend/internal/db"
)

// DatabaseStore stores agencies and leads in SQLite or PostgreSQL
type DatabaseStore struct {
	db *db.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// CreateAgency inserts an agency and returns its id
func (ds *DatabaseStore) CreateAgency(ctx context.Context, a Agency) (int64, error) {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Prompt) == "" {
		return 0, fmt.Errorf("name and prompt are required")
	}

	query := ds.db.Rebind(`
		INSERT INTO agencies (name, prompt, assistant_name)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	var id int64
	if err := ds.db.QueryRowContext(ctx, query, a.Name, a.Prompt, nullable(a.AssistantName)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create agency: %w", err)
	}
	return id, nil
}

// GetAgency retrieves an agency by id
func (ds *DatabaseStore) GetAgency(ctx context.Context, id int64) (*Agency, error) {
	query := ds.db.Rebind(`
		SELECT id, name, prompt, assistant_name, created_at
		FROM agencies
		WHERE id = ?
	`)

	var a Agency
	var assistant sql.NullString
	err := ds.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Prompt, &assistant, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agency: %w", err)
	}
	a.AssistantName = assistant.String
	return &a, nil
}

// SaveLead records a captured lead
func (ds *DatabaseStore) SaveLead(ctx context.Context, l Lead) (int64, error) {
	if l.AgencyID <= 0 {
		return 0, fmt.Errorf("agency_id is required")
	}

	query := ds.db.Rebind(`
		INSERT INTO leads (agency_id, email, phone, message)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	if err := ds.db.QueryRowContext(ctx, query, l.AgencyID, nullable(l.Email), nullable(l.Phone), l.Message).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to save lead: %w", err)
	}
	return id, nil
}

// ListLeads returns all leads of an agency in insertion order
func (ds *DatabaseStore) ListLeads(ctx context.Context, agencyID int64) ([]Lead, error) {
	query := ds.db.Rebind(`
		SELECT id, agency_id, email, phone, message, created_at
		FROM leads
		WHERE agency_id = ?
		ORDER BY id
	`)

	rows, err := ds.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		var l Lead
		var email, phone sql.NullString
		if err := rows.Scan(&l.ID, &l.AgencyID, &email, &phone, &l.Message, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		l.Email = email.String
		l.Phone = phone.String
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
