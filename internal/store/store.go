package store

import (
	"context"
	"errors"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
)

// ErrNotFound is returned when a tenant or API key does not exist.
var ErrNotFound = errors.New("record not found")

// TenantUpdate carries optional tenant mutations; nil fields are untouched.
type TenantUpdate struct {
	DisplayName  *string
	Status       *models.TenantStatus
	Plan         *string
	QuotaDaily   *int64
	QuotaMonthly *int64
}

// Analytics summarizes a tenant's access log over a time range.
type Analytics struct {
	RequestCount      int64   `json:"request_count"`
	ErrorCount        int64   `json:"error_count"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// TenantStore abstracts the directory of tenants, their API keys and the
// access log, so the gateway works the same against Postgres or the
// in-memory implementation used for development and tests.
type TenantStore interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	UpdateTenant(ctx context.Context, id string, upd TenantUpdate) error
	DeleteTenant(ctx context.Context, id string) error

	CreateAPIKey(ctx context.Context, k *models.APIKey) error
	GetAPIKey(ctx context.Context, id string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, tenantID string) ([]models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	TouchAPIKey(ctx context.Context, id string, at time.Time) error

	LogAccess(ctx context.Context, entry *models.AccessLog) error
	GetTenantAnalytics(ctx context.Context, tenantID string, from, to time.Time) (*Analytics, error)
}
