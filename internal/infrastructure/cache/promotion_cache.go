// Package cache provides a redis cache-aside layer over the promotion catalogue.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
	"motodealer/pkg/logger"
)

const (
	keyPrefix  = "motodealer:promotion:"
	versionKey = "motodealer:promotions:version"

	// DefaultTTL bounds how stale a cached promotion can be.
	DefaultTTL = 5 * time.Minute
)

var _ promotion.Repository = (*PromotionCache)(nil)

// PromotionCache wraps a promotion.Repository with redis.
//
// Reads go to redis first and fall back to the wrapped repository. Redis
// failures are logged and never fail a read. Listings are keyed by a catalogue
// version that Create bumps, so a new promotion shows up immediately.
type PromotionCache struct {
	next   promotion.Repository
	client redis.UniversalClient
	ttl    time.Duration
}

// NewPromotionCache creates the cache. ttl <= 0 selects DefaultTTL.
func NewPromotionCache(next promotion.Repository, client redis.UniversalClient, ttl time.Duration) *PromotionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PromotionCache{next: next, client: client, ttl: ttl}
}

// Ping checks the redis connection.
func (c *PromotionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetByIDs serves what it can from redis and loads the rest.
func (c *PromotionCache) GetByIDs(ctx context.Context, ids []id.ID) ([]promotion.Promotion, error) {
	if len(ids) == 0 {
		return []promotion.Promotion{}, nil
	}

	keys := make([]string, len(ids))
	for i, pid := range ids {
		keys[i] = promotionKey(pid)
	}

	found := make(map[id.ID]promotion.Promotion, len(ids))
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warn(ctx, "promotion cache read failed", "error", err)
	} else {
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			var p promotion.Promotion
			if err := json.Unmarshal([]byte(s), &p); err != nil {
				logger.Warn(ctx, "dropping undecodable cached promotion", "key", keys[i], "error", err)
				continue
			}
			found[ids[i]] = p
		}
	}

	var missing []id.ID
	for _, pid := range ids {
		if _, ok := found[pid]; !ok {
			missing = append(missing, pid)
		}
	}

	if len(missing) > 0 {
		loaded, err := c.next.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		c.store(ctx, loaded)
		for _, p := range loaded {
			found[p.ID] = p
		}
	}

	out := make([]promotion.Promotion, 0, len(ids))
	for _, pid := range ids {
		out = append(out, found[pid])
	}
	return out, nil
}

// List caches whole listings per filter and catalogue version.
func (c *PromotionCache) List(ctx context.Context, filter promotion.Filter) ([]promotion.Promotion, error) {
	key, err := c.listKey(ctx, filter)
	if err != nil {
		logger.Warn(ctx, "promotion cache version read failed", "error", err)
		return c.next.List(ctx, filter)
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []promotion.Promotion
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
		logger.Warn(ctx, "dropping undecodable cached listing", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, "promotion cache read failed", "key", key, "error", err)
	}

	out, err := c.next.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(out); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Warn(ctx, "promotion cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

// Create writes through and invalidates cached listings.
func (c *PromotionCache) Create(ctx context.Context, p *promotion.Promotion) error {
	if err := c.next.Create(ctx, p); err != nil {
		return err
	}
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		logger.Warn(ctx, "promotion cache invalidation failed", "error", err)
	}
	c.store(ctx, []promotion.Promotion{*p})
	return nil
}

func (c *PromotionCache) store(ctx context.Context, promotions []promotion.Promotion) {
	if len(promotions) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for _, p := range promotions {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, promotionKey(p.ID), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn(ctx, "promotion cache write failed", "count", len(promotions), "error", err)
	}
}

func (c *PromotionCache) listKey(ctx context.Context, filter promotion.Filter) (string, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	method := string(filter.PaymentMethod)
	if method == "" {
		method = "any"
	}
	return fmt.Sprintf("%slist:v%d:%s:%t", keyPrefix, version, method, filter.OnlyEnabled), nil
}

func promotionKey(pid id.ID) string {
	return keyPrefix + pid.String()
}
