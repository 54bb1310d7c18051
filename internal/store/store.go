package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Agency is a tenant on whose behalf the widget is deployed.
type Agency struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Prompt        string    `json:"prompt"`
	AssistantName string    `json:"assistant_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Lead is contact information captured from a chat message. Empty Email or
// Phone means the message did not contain one.
type Lead struct {
	ID        int64
	AgencyID  int64
	Email     string
	Phone     string
	Message   string
	CreatedAt time.Time
}

// Store persists agencies and their captured leads.
type Store interface {
	CreateAgency(ctx context.Context, a Agency) (int64, error)
	GetAgency(ctx context.Context, id int64) (*Agency, error)
	SaveLead(ctx context.Context, l Lead) (int64, error)
	// ListLeads returns the agency's leads, oldest first.
	ListLeads(ctx context.Context, agencyID int64) ([]Lead, error)
}
