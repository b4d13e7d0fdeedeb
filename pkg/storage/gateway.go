// Package storage provides the persisted key-value gateway shared by the cart
// and the category cache.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CartKey is the key holding the JSON array of cart line items.
const CartKey = "cart"

// Gateway wraps the shared Redis keyspace with JSON (de)serialization.
// Reads never fail: missing, unreachable or corrupt entries yield the zero
// value of the requested type.
type Gateway struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewGateway creates a gateway on top of the given Redis client.
func NewGateway(redisClient *redis.Client, logger zerolog.Logger) *Gateway {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Gateway{
		redis:  redisClient,
		logger: logger.With().Str("component", logging.ComponentStorage).Logger(),
	}
}

// Get loads and decodes the value stored under key.
// The boolean reports whether a well-formed value was found.
func Get[T any](ctx context.Context, g *Gateway, key string) (T, bool) {
	var zero T

	data, err := g.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false
		}
		StorageErrors.WithLabelValues("get").Inc()
		g.logger.Warn().Err(err).Str("key", key).Msg("Storage read failed, using empty value")
		return zero, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		StorageCorruption.WithLabelValues(key).Inc()
		g.logger.Warn().Err(err).Str("key", key).Msg("Corrupt stored value, using empty value")
		return zero, false
	}

	return value, true
}

// Set serializes value and stores it under key without expiration.
func (g *Gateway) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		StorageErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	if err := g.redis.Set(ctx, key, data, 0).Err(); err != nil {
		StorageErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %q: %w", key, err)
	}

	g.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Stored value")
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (g *Gateway) Remove(ctx context.Context, key string) error {
	if err := g.redis.Del(ctx, key).Err(); err != nil {
		StorageErrors.WithLabelValues("remove").Inc()
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present, regardless of its contents.
func (g *Gateway) Exists(ctx context.Context, key string) (bool, error) {
	n, err := g.redis.Exists(ctx, key).Result()
	if err != nil {
		StorageErrors.WithLabelValues("exists").Inc()
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Keys returns every key starting with prefix.
func (g *Gateway) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := g.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		StorageErrors.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("redis scan %q: %w", prefix, err)
	}

	return keys, nil
}
