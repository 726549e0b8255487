package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yassineco/assistant-core/internal/models"
)

// checkAndIncrScript checks both scopes before touching either counter, so
// a rejected request never increments anything. Returns
// {1, dayRequests, dayTokens} on admit, {-1} when the daily budget is the
// first breached, {-2} for monthly.
var checkAndIncrScript = redis.NewScript(`
local dayReq = tonumber(redis.call('HGET', KEYS[1], 'requests') or '0')
if tonumber(ARGV[1]) > 0 and dayReq + 1 > tonumber(ARGV[1]) then
    return {-1}
end
local monReq = tonumber(redis.call('HGET', KEYS[2], 'requests') or '0')
if tonumber(ARGV[2]) > 0 and monReq + 1 > tonumber(ARGV[2]) then
    return {-2}
end
local newDay = redis.call('HINCRBY', KEYS[1], 'requests', 1)
local newTokens = redis.call('HINCRBY', KEYS[1], 'tokens', ARGV[3])
local newMon = redis.call('HINCRBY', KEYS[2], 'requests', 1)
redis.call('HINCRBY', KEYS[2], 'tokens', ARGV[3])
if newDay == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[4])
end
if newMon == 1 then
    redis.call('EXPIRE', KEYS[2], ARGV[5])
end
return {1, newDay, newTokens}
`)

// RedisTracker keeps counters in Redis hashes keyed by tenant and period
// bucket, expiring at period rollover.
type RedisTracker struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisTracker(redisURL string) (*RedisTracker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisTracker{client: redis.NewClient(opt), now: time.Now}, nil
}

func (t *RedisTracker) Close() error {
	return t.client.Close()
}

func (t *RedisTracker) CheckAndIncrement(ctx context.Context, tenantID string, cost int64, limits Limits) (*models.UsageRecord, error) {
	now := t.now()
	dayKey := fmt.Sprintf("quota:tenant:%s:day:%s", tenantID, dayPeriod(now))
	monKey := fmt.Sprintf("quota:tenant:%s:month:%s", tenantID, monthPeriod(now))

	res, err := checkAndIncrScript.Run(ctx, t.client,
		[]string{dayKey, monKey},
		limits.Daily, limits.Monthly, cost,
		int64(untilNextDay(now).Seconds())+1,
		int64(untilNextMonth(now).Seconds())+1,
	).Int64Slice()
	if err != nil {
		return nil, err
	}

	switch res[0] {
	case -1:
		return nil, &QuotaExceededError{Scope: ScopeDaily, RetryAfter: untilNextDay(now)}
	case -2:
		return nil, &QuotaExceededError{Scope: ScopeMonthly, RetryAfter: untilNextMonth(now)}
	}

	return &models.UsageRecord{
		TenantID:     tenantID,
		Period:       dayPeriod(now),
		RequestCount: res[1],
		TokenCount:   res[2],
	}, nil
}

func (t *RedisTracker) Usage(ctx context.Context, tenantID string) (*models.UsageRecord, *models.UsageRecord, error) {
	now := t.now()
	daily, err := t.readBucket(ctx, tenantID,
		fmt.Sprintf("quota:tenant:%s:day:%s", tenantID, dayPeriod(now)), dayPeriod(now))
	if err != nil {
		return nil, nil, err
	}
	monthly, err := t.readBucket(ctx, tenantID,
		fmt.Sprintf("quota:tenant:%s:month:%s", tenantID, monthPeriod(now)), monthPeriod(now))
	if err != nil {
		return nil, nil, err
	}
	return daily, monthly, nil
}

func (t *RedisTracker) readBucket(ctx context.Context, tenantID, key, period string) (*models.UsageRecord, error) {
	vals, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	rec := &models.UsageRecord{TenantID: tenantID, Period: period}
	fmt.Sscan(vals["requests"], &rec.RequestCount)
	fmt.Sscan(vals["tokens"], &rec.TokenCount)
	return rec, nil
}
