package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yassineco/assistant-core/internal/models"
)

// PostgresStore keeps tenants, API keys and the access log in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	query := `
        INSERT INTO tenants (id, display_name, status, plan, quota_daily, quota_monthly)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `
	return s.pool.QueryRow(ctx, query,
		t.ID, t.DisplayName, t.Status, t.Plan, t.QuotaDaily, t.QuotaMonthly,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	query := `
        SELECT id, display_name, status, plan, quota_daily, quota_monthly, created_at, updated_at
        FROM tenants
        WHERE id = $1
    `
	var t models.Tenant
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.DisplayName, &t.Status, &t.Plan,
		&t.QuotaDaily, &t.QuotaMonthly, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	query := `
        SELECT id, display_name, status, plan, quota_daily, quota_monthly, created_at, updated_at
        FROM tenants
        ORDER BY created_at
    `
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(
			&t.ID, &t.DisplayName, &t.Status, &t.Plan,
			&t.QuotaDaily, &t.QuotaMonthly, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *PostgresStore) UpdateTenant(ctx context.Context, id string, upd TenantUpdate) error {
	query := `
        UPDATE tenants SET
            display_name  = COALESCE($2, display_name),
            status        = COALESCE($3, status),
            plan          = COALESCE($4, plan),
            quota_daily   = COALESCE($5, quota_daily),
            quota_monthly = COALESCE($6, quota_monthly),
            updated_at    = NOW()
        WHERE id = $1
    `
	tag, err := s.pool.Exec(ctx, query, id, upd.DisplayName, upd.Status, upd.Plan, upd.QuotaDaily, upd.QuotaMonthly)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTenant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, k *models.APIKey) error {
	query := `
        INSERT INTO api_keys (id, tenant_id, key_hash, revoked)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `
	return s.pool.QueryRow(ctx, query, k.ID, k.TenantID, k.KeyHash, k.Revoked).Scan(&k.CreatedAt)
}

func (s *PostgresStore) GetAPIKey(ctx context.Context, id string) (*models.APIKey, error) {
	query := `
        SELECT id, tenant_id, key_hash, created_at, last_used_at, revoked
        FROM api_keys
        WHERE id = $1
    `
	var k models.APIKey
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&k.ID, &k.TenantID, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt, &k.Revoked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, tenantID string) ([]models.APIKey, error) {
	query := `
        SELECT id, tenant_id, key_hash, created_at, last_used_at, revoked
        FROM api_keys
        WHERE tenant_id = $1
        ORDER BY created_at
    `
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.TenantID, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt, &k.Revoked); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE api_keys SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

func (s *PostgresStore) LogAccess(ctx context.Context, entry *models.AccessLog) error {
	query := `
        INSERT INTO access_logs (tenant_id, endpoint, method, status_code, response_time_ms, request_size, response_size)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := s.pool.Exec(ctx, query,
		entry.TenantID, entry.Endpoint, entry.Method, entry.StatusCode,
		entry.ResponseTimeMs, entry.RequestSize, entry.ResponseSize,
	)
	return err
}

func (s *PostgresStore) GetTenantAnalytics(ctx context.Context, tenantID string, from, to time.Time) (*Analytics, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status_code >= 400),
               COALESCE(AVG(response_time_ms), 0)
        FROM access_logs
        WHERE tenant_id = $1 AND timestamp >= $2 AND timestamp < $3
    `
	var a Analytics
	if err := s.pool.QueryRow(ctx, query, tenantID, from, to).Scan(
		&a.RequestCount, &a.ErrorCount, &a.AvgResponseTimeMs,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
