package quota

import (
	"context"
	"sync"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
)

type bucket struct {
	requests int64
	tokens   int64
}

// MemoryTracker is the in-process Tracker used for development and tests.
// A single mutex serializes check-and-increment across all tenants; the
// map is keyed by (tenant, period) so rollover naturally starts a fresh
// bucket.
type MemoryTracker struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// SetClock overrides the tracker's notion of now; tests use it to cross
// period boundaries.
func (t *MemoryTracker) SetClock(now func() time.Time) {
	t.now = now
}

func (t *MemoryTracker) CheckAndIncrement(ctx context.Context, tenantID string, cost int64, limits Limits) (*models.UsageRecord, error) {
	now := t.now()
	dayKey := tenantID + ":day:" + dayPeriod(now)
	monKey := tenantID + ":month:" + monthPeriod(now)

	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.bucket(dayKey)
	if limits.Daily > 0 && day.requests+1 > limits.Daily {
		return nil, &QuotaExceededError{Scope: ScopeDaily, RetryAfter: untilNextDay(now)}
	}
	mon := t.bucket(monKey)
	if limits.Monthly > 0 && mon.requests+1 > limits.Monthly {
		return nil, &QuotaExceededError{Scope: ScopeMonthly, RetryAfter: untilNextMonth(now)}
	}

	day.requests++
	day.tokens += cost
	mon.requests++
	mon.tokens += cost

	return &models.UsageRecord{
		TenantID:     tenantID,
		Period:       dayPeriod(now),
		RequestCount: day.requests,
		TokenCount:   day.tokens,
	}, nil
}

func (t *MemoryTracker) Usage(ctx context.Context, tenantID string) (*models.UsageRecord, *models.UsageRecord, error) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	day := t.bucket(tenantID + ":day:" + dayPeriod(now))
	mon := t.bucket(tenantID + ":month:" + monthPeriod(now))
	return &models.UsageRecord{
			TenantID:     tenantID,
			Period:       dayPeriod(now),
			RequestCount: day.requests,
			TokenCount:   day.tokens,
		}, &models.UsageRecord{
			TenantID:     tenantID,
			Period:       monthPeriod(now),
			RequestCount: mon.requests,
			TokenCount:   mon.tokens,
		}, nil
}

func (t *MemoryTracker) bucket(key string) *bucket {
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{}
		t.buckets[key] = b
	}
	return b
}
