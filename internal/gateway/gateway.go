package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/yassineco/assistant-core/internal/auth"
	"github.com/yassineco/assistant-core/internal/models"
	"github.com/yassineco/assistant-core/internal/quota"
)

// Gateway composes key validation, tenant status and quota accounting into
// a single admission check. Checks run in order: key validity, tenant
// status, quota. Any failure short-circuits before the quota counter is
// touched, so a rejected request has no side effects.
type Gateway struct {
	validator *auth.Validator
	tracker   quota.Tracker
}

func New(validator *auth.Validator, tracker quota.Tracker) *Gateway {
	return &Gateway{validator: validator, tracker: tracker}
}

// Admit authenticates a raw API key and accounts one request against the
// tenant's quota. On success the returned RequestContext carries the
// remaining daily quota for client-visible reporting (-1 when unlimited).
func (g *Gateway) Admit(ctx context.Context, rawKey string, cost int64) (*models.RequestContext, error) {
	key, err := g.validator.ValidateKey(ctx, rawKey)
	if err != nil {
		return nil, err
	}
	return g.admitKey(ctx, key, cost)
}

// AdmitClaims admits a request authenticated by a bearer token minted from
// an API key. Revocation, tenant status and quota are re-checked on every
// call; the token only replaces the bcrypt comparison.
func (g *Gateway) AdmitClaims(ctx context.Context, claims *auth.Claims, cost int64) (*models.RequestContext, error) {
	key, err := g.validator.GetKey(ctx, claims.APIKeyID)
	if err != nil {
		return nil, err
	}
	return g.admitKey(ctx, key, cost)
}

func (g *Gateway) admitKey(ctx context.Context, key *models.APIKey, cost int64) (*models.RequestContext, error) {
	tenant, err := g.validator.ResolveTenant(ctx, key.TenantID)
	if err != nil {
		return nil, err
	}

	// A cancelled request must not consume quota.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usage, err := g.tracker.CheckAndIncrement(ctx, tenant.ID, cost, quota.Limits{
		Daily:   tenant.QuotaDaily,
		Monthly: tenant.QuotaMonthly,
	})
	if err != nil {
		return nil, err
	}

	remaining := int64(-1)
	if tenant.QuotaDaily > 0 {
		remaining = tenant.QuotaDaily - usage.RequestCount
	}

	return &models.RequestContext{
		TenantID:       tenant.ID,
		APIKeyID:       key.ID,
		RequestID:      uuid.NewString(),
		QuotaRemaining: remaining,
	}, nil
}
