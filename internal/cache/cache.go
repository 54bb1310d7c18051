// Package cache keeps recently looked-up agencies close to the chat and
// agency-info handlers.
package cache

import (
	"context"
	"sync"
	"time"

	"luxury-leads-backend/internal/store"
)

// AgencyCache is a best-effort cache; a miss or backend failure means the
// caller falls through to the store.
type AgencyCache interface {
	Get(ctx context.Context, id int64) (*store.Agency, bool)
	Set(ctx context.Context, a store.Agency)
}

type memoryEntry struct {
	agency    store.Agency
	expiresAt time.Time
}

// MemoryCache is an in-process AgencyCache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[int64]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached agency if within TTL.
func (c *MemoryCache) Get(_ context.Context, id int64) (*store.Agency, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, id)
		return nil, false
	}
	a := e.agency
	return &a, true
}

func (c *MemoryCache) Set(_ context.Context, a store.Agency) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[a.ID] = memoryEntry{agency: a, expiresAt: c.now().Add(c.ttl)}
}

// Agencies reads agencies through a cache.
type Agencies struct {
	Store store.Store
	Cache AgencyCache
}

// Get returns the agency from the cache, or loads it from the store and
// populates the cache.
func (a Agencies) Get(ctx context.Context, id int64) (*store.Agency, error) {
	if a.Cache != nil {
		if agency, ok := a.Cache.Get(ctx, id); ok {
			return agency, nil
		}
	}
	agency, err := a.Store.GetAgency(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Cache != nil {
		a.Cache.Set(ctx, *agency)
	}
	return agency, nil
}
