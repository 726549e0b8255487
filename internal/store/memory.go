package store

import (
	"context"
	"sync"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
)

// MemoryStore is the in-memory TenantStore used for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]models.Tenant
	keys    map[string]models.APIKey
	logs    []models.AccessLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[string]models.Tenant),
		keys:    make(map[string]models.APIKey),
	}
}

func (s *MemoryStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tenants[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) UpdateTenant(ctx context.Context, id string, upd TenantUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return ErrNotFound
	}
	if upd.DisplayName != nil {
		t.DisplayName = *upd.DisplayName
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Plan != nil {
		t.Plan = *upd.Plan
	}
	if upd.QuotaDaily != nil {
		t.QuotaDaily = *upd.QuotaDaily
	}
	if upd.QuotaMonthly != nil {
		t.QuotaMonthly = *upd.QuotaMonthly
	}
	t.UpdatedAt = time.Now().UTC()
	s.tenants[id] = t
	return nil
}

func (s *MemoryStore) DeleteTenant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[id]; !ok {
		return ErrNotFound
	}
	delete(s.tenants, id)
	return nil
}

func (s *MemoryStore) CreateAPIKey(ctx context.Context, k *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k.CreatedAt = time.Now().UTC()
	s.keys[k.ID] = *k
	return nil
}

func (s *MemoryStore) GetAPIKey(ctx context.Context, id string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (s *MemoryStore) ListAPIKeys(ctx context.Context, tenantID string) ([]models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.APIKey
	for _, k := range s.keys {
		if k.TenantID == tenantID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *MemoryStore) RevokeAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return ErrNotFound
	}
	k.Revoked = true
	s.keys[id] = k
	return nil
}

func (s *MemoryStore) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return ErrNotFound
	}
	k.LastUsedAt = &at
	s.keys[id] = k
	return nil
}

func (s *MemoryStore) LogAccess(ctx context.Context, entry *models.AccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.logs) + 1)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *MemoryStore) GetTenantAnalytics(ctx context.Context, tenantID string, from, to time.Time) (*Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var a Analytics
	var totalMs int64
	for _, l := range s.logs {
		if l.TenantID != tenantID || l.Timestamp.Before(from) || !l.Timestamp.Before(to) {
			continue
		}
		a.RequestCount++
		totalMs += int64(l.ResponseTimeMs)
		if l.StatusCode >= 400 {
			a.ErrorCount++
		}
	}
	if a.RequestCount > 0 {
		a.AvgResponseTimeMs = float64(totalMs) / float64(a.RequestCount)
	}
	return &a, nil
}
