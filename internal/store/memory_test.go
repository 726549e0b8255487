package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassineco/assistant-core/internal/models"
)

func TestTenantLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tenant := &models.Tenant{ID: "tenant1", DisplayName: "Acme", Status: models.TenantActive, QuotaDaily: 10}
	require.NoError(t, s.CreateTenant(ctx, tenant))
	assert.False(t, tenant.CreatedAt.IsZero())

	got, err := s.GetTenant(ctx, "tenant1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.DisplayName)

	suspended := models.TenantSuspended
	daily := int64(99)
	require.NoError(t, s.UpdateTenant(ctx, "tenant1", TenantUpdate{Status: &suspended, QuotaDaily: &daily}))

	got, err = s.GetTenant(ctx, "tenant1")
	require.NoError(t, err)
	assert.Equal(t, models.TenantSuspended, got.Status)
	assert.EqualValues(t, 99, got.QuotaDaily)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Acme", got.DisplayName)

	require.NoError(t, s.DeleteTenant(ctx, "tenant1"))
	_, err = s.GetTenant(ctx, "tenant1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetTenant(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateTenant(ctx, "missing", TenantUpdate{}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTenant(ctx, "missing"), ErrNotFound)
}

func TestAPIKeyLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	key := &models.APIKey{ID: "key1", TenantID: "tenant1", KeyHash: "hash"}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	got, err := s.GetAPIKey(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, got.Revoked)
	assert.Nil(t, got.LastUsedAt)

	at := time.Now().UTC()
	require.NoError(t, s.TouchAPIKey(ctx, "key1", at))
	got, err = s.GetAPIKey(ctx, "key1")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.Equal(t, at, *got.LastUsedAt)

	require.NoError(t, s.RevokeAPIKey(ctx, "key1"))
	got, err = s.GetAPIKey(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	keys, err := s.ListAPIKeys(ctx, "tenant1")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestTenantAnalytics(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	logs := []models.AccessLog{
		{TenantID: "tenant1", StatusCode: 200, ResponseTimeMs: 10, Timestamp: base},
		{TenantID: "tenant1", StatusCode: 429, ResponseTimeMs: 2, Timestamp: base.Add(time.Minute)},
		{TenantID: "tenant2", StatusCode: 200, ResponseTimeMs: 50, Timestamp: base},
		{TenantID: "tenant1", StatusCode: 200, ResponseTimeMs: 30, Timestamp: base.AddDate(0, 0, 5)},
	}
	for i := range logs {
		require.NoError(t, s.LogAccess(ctx, &logs[i]))
	}

	stats, err := s.GetTenantAnalytics(ctx, "tenant1", base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.RequestCount)
	assert.EqualValues(t, 1, stats.ErrorCount)
	assert.InDelta(t, 6.0, stats.AvgResponseTimeMs, 1e-9)
}
