package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/currency"
)

const snapshotKey = "currency:rates"

// NewRedisClient creates and verifies a redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

type cachedRate struct {
	Code       string    `json:"code"`
	Multiplier string    `json:"multiplier"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SnapshotCache keeps the active rate table in redis so ranking calls
// do not hit postgres on every request.
type SnapshotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached rates. Any cache failure is a miss, never an
// error: the caller falls back to postgres.
func (c *SnapshotCache) Get(ctx context.Context) ([]currency.Rate, bool) {
	raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rate cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var cached []cachedRate
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("rate cache payload corrupt", zap.Error(err))
		return nil, false
	}

	rates := make([]currency.Rate, 0, len(cached))
	for _, entry := range cached {
		multiplier, err := decimal.NewFromString(entry.Multiplier)
		if err != nil {
			c.logger.Warn("rate cache multiplier corrupt",
				zap.String("code", entry.Code),
				zap.Error(err),
			)
			return nil, false
		}
		rates = append(rates, currency.Rate{
			Code:       entry.Code,
			Multiplier: multiplier,
			UpdatedAt:  entry.UpdatedAt,
		})
	}
	return rates, true
}

// Set stores the rates under the cache TTL.
func (c *SnapshotCache) Set(ctx context.Context, rates []currency.Rate) error {
	cached := make([]cachedRate, 0, len(rates))
	for _, rate := range rates {
		cached = append(cached, cachedRate{
			Code:       rate.Code,
			Multiplier: rate.Multiplier.String(),
			UpdatedAt:  rate.UpdatedAt,
		})
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal rate cache: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write rate cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached rates, forcing the next snapshot to read
// postgres.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("invalidate rate cache: %w", err)
	}
	return nil
}

// RateSource hands the engine an immutable snapshot of the active
// rates, served from the cache when possible.
type RateSource struct {
	store  *Store
	cache  *SnapshotCache
	logger *zap.Logger
}

func NewRateSource(store *Store, cache *SnapshotCache, logger *zap.Logger) *RateSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateSource{store: store, cache: cache, logger: logger}
}

// Snapshot builds the rate snapshot one ranking call runs against.
func (s *RateSource) Snapshot(ctx context.Context) (*currency.Snapshot, error) {
	if s.cache != nil {
		if rates, ok := s.cache.Get(ctx); ok {
			return currency.NewSnapshot(rates, time.Now().UTC())
		}
	}

	rates, err := s.store.ActiveRates(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rates); err != nil {
			s.logger.Warn("caching rates failed", zap.Error(err))
		}
	}

	return currency.NewSnapshot(rates, time.Now().UTC())
}
