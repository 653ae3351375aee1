package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"smpctl/logger"
)

const driverListKey = "smpctl:drivers"

// DriverLister returns the installed driver names from the engine.
type DriverLister func(ctx context.Context) ([]string, error)

// DriverCache caches the driver list, which only changes when hardware does.
type DriverCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewDriverCache(rdb redis.Cmdable, ttl time.Duration) *DriverCache {
	return &DriverCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached list, or loads it with list and caches it.
// Redis failures fall through to list.
func (c *DriverCache) Get(ctx context.Context, list DriverLister) ([]string, bool, error) {
	data, err := c.rdb.Get(ctx, driverListKey).Bytes()
	switch {
	case err == nil:
		var drivers []string
		if jsonErr := json.Unmarshal(data, &drivers); jsonErr == nil {
			return drivers, true, nil
		}
		logger.Warn("discarding corrupt driver cache", logger.String("key", driverListKey))
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn("driver cache read failed", logger.ErrorField(err))
	}

	drivers, err := list(ctx)
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(drivers)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode driver list: %w", err)
	}
	if err := c.rdb.Set(ctx, driverListKey, payload, c.ttl).Err(); err != nil {
		logger.Warn("driver cache write failed", logger.ErrorField(err))
	}
	return drivers, false, nil
}

// Invalidate drops the cached list.
func (c *DriverCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, driverListKey).Err()
}
