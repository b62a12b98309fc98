package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// entry is the wire envelope stored in the backend. The negative flag keeps
// the marker unambiguous even if a real slug could ever collide with a
// sentinel string.
type entry struct {
	Negative bool   `json:"negative,omitempty"`
	Slug     string `json:"slug,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Redis is the production Cache backed by a Redis-compatible store.
type Redis struct {
	rdb         *redis.Client
	positiveTTL time.Duration
	negativeTTL time.Duration
	logger      *zap.Logger
}

// NewRedis creates a Redis cache with the default TTLs.
func NewRedis(rdb *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{
		rdb:         rdb,
		positiveTTL: DefaultPositiveTTL,
		negativeTTL: DefaultNegativeTTL,
		logger:      logger,
	}
}

// SetTTLs overrides the positive and negative entry lifetimes. Zero values
// keep the current setting.
func (c *Redis) SetTTLs(positive, negative time.Duration) {
	if positive > 0 {
		c.positiveTTL = positive
	}
	if negative > 0 {
		c.negativeTTL = negative
	}
}

func (c *Redis) Get(ctx context.Context, hostname string) Result {
	raw, err := c.rdb.Get(ctx, keyPrefix+hostname).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed, treating as miss",
				zap.String("hostname", hostname),
				zap.Error(err),
			)
		}
		return Result{Kind: Miss}
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
		return Result{Kind: Miss}
	}
	if e.Negative {
		return Result{Kind: Negative}
	}
	return Result{Kind: Hit, Mapping: Mapping{Slug: e.Slug, TenantID: e.TenantID}}
}

func (c *Redis) Set(ctx context.Context, hostname string, m Mapping) {
	c.write(ctx, hostname, entry{Slug: m.Slug, TenantID: m.TenantID}, c.positiveTTL)
}

func (c *Redis) SetNegative(ctx context.Context, hostname string) {
	c.write(ctx, hostname, entry{Negative: true}, c.negativeTTL)
}

func (c *Redis) Invalidate(ctx context.Context, hostname string) {
	if err := c.rdb.Del(ctx, keyPrefix+hostname).Err(); err != nil {
		c.logger.Warn("cache invalidate failed",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
	}
}

func (c *Redis) write(ctx context.Context, hostname string, e entry, ttl time.Duration) {
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+hostname, raw, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
	}
}
