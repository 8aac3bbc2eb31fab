package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisCache is a generic Cache backed by Redis. Values are stored as JSON
// under "<prefix><key>" and do not expire.
type RedisCache[K comparable, V any] struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	prefix      string
	ownsClient  bool
}

// NewRedisCache creates and connects a new generic RedisCache.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisCache[K comparable, V any](
	ctx context.Context,
	cfg *RedisConfig,
	logger zerolog.Logger,
) (*RedisCache[K, V], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	c := NewRedisCacheFromClient[K, V](rdb, cfg.KeyPrefix, logger)
	c.ownsClient = true
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. The client is not closed by Close.
func NewRedisCacheFromClient[K comparable, V any](client *redis.Client, prefix string, logger zerolog.Logger) *RedisCache[K, V] {
	return &RedisCache[K, V]{
		redisClient: client,
		logger:      logger.With().Str("component", "RedisCache").Logger(),
		prefix:      prefix,
	}
}

func (c *RedisCache[K, V]) key(key K) string {
	return fmt.Sprintf("%s%v", c.prefix, key)
}

// FetchFromCache retrieves and unmarshals a value. A redis.Nil reply is
// reported as ErrCacheMiss.
func (c *RedisCache[K, V]) FetchFromCache(ctx context.Context, key K) (V, error) {
	var zero V
	stringKey := c.key(key)
	cachedData, err := c.redisClient.Get(ctx, stringKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug().Str("key", stringKey).Msg("Redis cache miss.")
			return zero, fmt.Errorf("key '%s' not found in redis: %w", stringKey, ErrCacheMiss)
		}
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Unexpected Redis error during fetch.")
		return zero, fmt.Errorf("redis get for %s: %w", stringKey, err)
	}

	var value V
	if err := json.Unmarshal(cachedData, &value); err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to unmarshal cached data.")
		return zero, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	c.logger.Debug().Str("key", stringKey).Msg("Redis cache hit.")
	return value, nil
}

// WriteToCache marshals the value to JSON and stores it without expiry.
func (c *RedisCache[K, V]) WriteToCache(ctx context.Context, key K, value V) error {
	stringKey := c.key(key)
	jsonData, err := json.Marshal(value)
	if err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to marshal data for caching.")
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := c.redisClient.Set(ctx, stringKey, jsonData, 0).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to set data in Redis cache.")
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	c.logger.Debug().Str("key", stringKey).Msg("Successfully stored data in Redis cache.")
	return nil
}

// Delete removes a key from Redis.
func (c *RedisCache[K, V]) Delete(ctx context.Context, key K) error {
	stringKey := c.key(key)
	if err := c.redisClient.Del(ctx, stringKey).Err(); err != nil {
		return fmt.Errorf("redis del failed for key %s: %w", stringKey, err)
	}
	return nil
}

// Close closes the Redis client connection if this cache created it.
func (c *RedisCache[K, V]) Close() error {
	if c.redisClient != nil && c.ownsClient {
		c.logger.Info().Msg("Closing Redis client connection...")
		return c.redisClient.Close()
	}
	return nil
}
