package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps agencies and leads in process memory. Used by tests and
// when the server runs without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	agencies     map[int64]Agency
	leads        map[int64][]Lead
	nextAgencyID int64
	nextLeadID   int64
	// maxLeads caps leads kept per agency; <= 0 keeps all
	maxLeads int
}

func NewMemoryStore(maxLeads int) *MemoryStore {
	return &MemoryStore{
		agencies: make(map[int64]Agency),
		leads:    make(map[int64][]Lead),
		maxLeads: maxLeads,
	}
}

func (m *MemoryStore) CreateAgency(_ context.Context, a Agency) (int64, error) {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Prompt) == "" {
		return 0, fmt.Errorf("name and prompt are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAgencyID++
	a.ID = m.nextAgencyID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.agencies[a.ID] = a
	return a.ID, nil
}

func (m *MemoryStore) GetAgency(_ context.Context, id int64) (*Agency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agencies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) SaveLead(_ context.Context, l Lead) (int64, error) {
	if l.AgencyID <= 0 {
		return 0, fmt.Errorf("agency_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextLeadID++
	l.ID = m.nextLeadID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.leads[l.AgencyID] = append(m.leads[l.AgencyID], l)
	m.trimLocked(l.AgencyID)
	return l.ID, nil
}

func (m *MemoryStore) ListLeads(_ context.Context, agencyID int64) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	leads := m.leads[agencyID]
	out := make([]Lead, len(leads))
	copy(out, leads)
	return out, nil
}

func (m *MemoryStore) trimLocked(agencyID int64) {
	if m.maxLeads <= 0 {
		return
	}
	leads := m.leads[agencyID]
	if len(leads) > m.maxLeads {
		m.leads[agencyID] = leads[len(leads)-m.maxLeads:]
	}
}
