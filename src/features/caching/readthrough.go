package caching

import (
	"context"
	"encoding/json"
	"log/slog"

	"vibecast/src/infra/cache"
)

// Through is generic read-through: on a hit, decode and return the cached
// payload; on a miss, call load, store the encoded result, and return it. A
// cache failure (bad payload, encode error) is logged and degrades to the
// loader, never to a request error.
func Through[T any](ctx context.Context, c *cache.TTLCache, key string, load func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if c != nil {
		if payload, ok := c.Get(key); ok {
			var value T
			if err := json.Unmarshal(payload, &value); err == nil {
				return value, nil
			}
			slog.Warn("discarding undecodable cache entry", "key", key)
			c.Delete(key)
		}
	}

	value, err := load()
	if err != nil {
		return zero, err
	}

	if c != nil {
		if payload, err := json.Marshal(value); err == nil {
			c.Set(key, payload)
		} else {
			slog.Warn("failed to encode value for cache", "key", key, "error", err)
		}
	}
	return value, nil
}
