package models

import "time"

// TenantStatus gates whether a tenant's requests are served at all.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

type Tenant struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Status       TenantStatus `json:"status"`
	Plan         string       `json:"plan"`
	QuotaDaily   int64        `json:"quota_daily"`
	QuotaMonthly int64        `json:"quota_monthly"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// APIKey is the stored form of a tenant credential. The raw secret is never
// persisted; KeyHash is a bcrypt hash of it. Revocation is permanent.
type APIKey struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	KeyHash    string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	Revoked    bool       `json:"revoked"`
}

// UsageRecord is one tenant's counters for one quota period bucket.
// Counters only ever count admitted requests.
type UsageRecord struct {
	TenantID     string `json:"tenant_id"`
	Period       string `json:"period"` // "2006-01-02" for daily, "2006-01" for monthly
	RequestCount int64  `json:"request_count"`
	TokenCount   int64  `json:"token_count"`
}

// RequestContext is created per admitted request and lives only for its
// duration.
type RequestContext struct {
	TenantID       string `json:"tenant_id"`
	APIKeyID       string `json:"api_key_id"`
	RequestID      string `json:"request_id"`
	QuotaRemaining int64  `json:"quota_remaining"`
}

// DocumentMetadata travels with every chunk derived from a document.
type DocumentMetadata struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Path     string `json:"path"`
	Section  string `json:"section,omitempty"`
}

type Document struct {
	Metadata DocumentMetadata `json:"metadata"`
	Content  string           `json:"content"`
}

// Chunk is a bounded retrieval unit. Embedding is empty until an index
// build completes; inside a built index it is always present with the
// index's dimension.
type Chunk struct {
	ID            string           `json:"id"`
	DocumentID    string           `json:"document_id"`
	Content       string           `json:"content"`
	TokenCount    int              `json:"token_count"`
	SequenceIndex int              `json:"sequence_index"`
	Metadata      DocumentMetadata `json:"metadata"`
	Embedding     []float64        `json:"embedding,omitempty"`
}

// SourceStats summarizes what went into an index build.
type SourceStats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// Index is immutable after construction. A rebuild produces a new Index;
// readers always work against the snapshot they captured.
type Index struct {
	Version   string      `json:"version"`
	BuiltAt   time.Time   `json:"built_at"`
	Dimension int         `json:"dimension"`
	Chunks    []Chunk     `json:"chunks"`
	Stats     SourceStats `json:"stats"`
}

// SearchResult pairs a chunk with its similarity to the query.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// AccessLog mirrors the per-request row written by the server middleware.
type AccessLog struct {
	ID             int64     `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status_code"`
	ResponseTimeMs int       `json:"response_time_ms"`
	RequestSize    int64     `json:"request_size"`
	ResponseSize   int64     `json:"response_size"`
	Timestamp      time.Time `json:"timestamp"`
}
