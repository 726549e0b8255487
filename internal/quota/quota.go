package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
)

type Scope string

const (
	ScopeDaily   Scope = "daily"
	ScopeMonthly Scope = "monthly"
)

// QuotaExceededError reports which scope was breached first and how long
// until that scope's period rolls over.
type QuotaExceededError struct {
	Scope      Scope
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded, retry after %s", e.Scope, e.RetryAfter.Round(time.Second))
}

// Limits are a tenant's configured request budgets; 0 means unlimited for
// that scope.
type Limits struct {
	Daily   int64
	Monthly int64
}

// Tracker accounts per-tenant usage against daily and monthly budgets. The
// check and the increment are one atomic operation: under concurrent
// requests the counted usage equals the number of admitted requests
// exactly, and a rejected request leaves no trace. Daily is checked before
// monthly.
type Tracker interface {
	CheckAndIncrement(ctx context.Context, tenantID string, cost int64, limits Limits) (*models.UsageRecord, error)
	Usage(ctx context.Context, tenantID string) (daily, monthly *models.UsageRecord, err error)
}

func dayPeriod(t time.Time) string   { return t.UTC().Format("2006-01-02") }
func monthPeriod(t time.Time) string { return t.UTC().Format("2006-01") }

func untilNextDay(t time.Time) time.Duration {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(t)
}

func untilNextMonth(t time.Time) time.Duration {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return next.Sub(t)
}
