package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CachedReporter is a read-through cache in front of a Reporter. Metrics are
// derived views, so a short TTL is the whole consistency story.
type CachedReporter struct {
	primary     Reporter
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCachedReporter(primary Reporter, redisClient *redis.Client, ttl time.Duration) *CachedReporter {
	return &CachedReporter{
		primary:     primary,
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (r *CachedReporter) CustomerMetrics(ctx context.Context, userID uuid.UUID) (*CustomerMetrics, error) {
	cacheKey := "metrics:customer:" + userID.String()

	cached, err := r.redisClient.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var m CustomerMetrics
		if err := json.Unmarshal(cached, &m); err == nil {
			return &m, nil
		}
	}

	m, err := r.primary.CustomerMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(m); err == nil {
		r.redisClient.Set(ctx, cacheKey, data, r.ttl)
	}
	return m, nil
}

// CustomerProperties goes straight to the primary; the grouped lists carry
// full records and are cheap enough to read fresh.
func (r *CachedReporter) CustomerProperties(ctx context.Context, userID uuid.UUID) (*PropertyGroups, error) {
	return r.primary.CustomerProperties(ctx, userID)
}
