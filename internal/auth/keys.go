package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yassineco/assistant-core/internal/models"
	"github.com/yassineco/assistant-core/internal/store"
)

var (
	ErrKeyInvalid = errors.New("invalid API key")
	ErrKeyRevoked = errors.New("API key revoked")

	ErrTenantNotFound  = errors.New("tenant not found")
	ErrTenantSuspended = errors.New("tenant suspended")
)

const keyPrefix = "sk"

// GenerateKey mints a raw API key for a tenant. The raw form
// "sk_<keyID>_<secret>" is returned exactly once; only the bcrypt hash of
// the secret is stored.
func GenerateKey(keyID, tenantID string) (string, *models.APIKey, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := hex.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	raw := strings.Join([]string{keyPrefix, keyID, secret}, "_")
	return raw, &models.APIKey{
		ID:       keyID,
		TenantID: tenantID,
		KeyHash:  string(hash),
	}, nil
}

// Validator authenticates raw API keys against the tenant store.
type Validator struct {
	store store.TenantStore
}

func NewValidator(s store.TenantStore) *Validator {
	return &Validator{store: s}
}

// ValidateKey resolves a raw key to its stored record. The secret is never
// compared directly; bcrypt verifies it against the stored hash in constant
// time. A revoked key stays invalid forever.
func (v *Validator) ValidateKey(ctx context.Context, rawKey string) (*models.APIKey, error) {
	keyID, secret, ok := parseKey(rawKey)
	if !ok {
		return nil, ErrKeyInvalid
	}

	key, err := v.store.GetAPIKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyInvalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)); err != nil {
		return nil, ErrKeyInvalid
	}
	if key.Revoked {
		return nil, ErrKeyRevoked
	}

	go v.store.TouchAPIKey(context.Background(), key.ID, time.Now().UTC())
	return key, nil
}

// ResolveTenant looks up a tenant and enforces its status.
func (v *Validator) ResolveTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	tenant, err := v.store.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if tenant.Status == models.TenantSuspended {
		return nil, ErrTenantSuspended
	}
	return tenant, nil
}

// GetKey fetches a key record by id, mapping missing records to ErrKeyInvalid.
func (v *Validator) GetKey(ctx context.Context, keyID string) (*models.APIKey, error) {
	key, err := v.store.GetAPIKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyInvalid
		}
		return nil, err
	}
	if key.Revoked {
		return nil, ErrKeyRevoked
	}
	return key, nil
}

func parseKey(raw string) (keyID, secret string, ok bool) {
	parts := strings.Split(raw, "_")
	if len(parts) != 3 || parts[0] != keyPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
