package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"luxury-leads-backend/internal/store"
)

// RedisCache shares agency lookups between server replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to url, which is either a redis:// URL or a host:port
// address.
func NewRedis(url, password string, ttl time.Duration) (*RedisCache, error) {
	var opts *redis.Options
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url}
	}
	if password != "" {
		opts.Password = password
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func agencyKey(id int64) string {
	return fmt.Sprintf("agency:%d", id)
}

func (c *RedisCache) Get(ctx context.Context, id int64) (*store.Agency, bool) {
	raw, err := c.client.Get(ctx, agencyKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int64("agency_id", id).Msg("redis get failed")
		}
		return nil, false
	}
	var a store.Agency
	if err := json.Unmarshal(raw, &a); err != nil {
		log.Warn().Err(err).Int64("agency_id", id).Msg("discarding malformed cached agency")
		return nil, false
	}
	return &a, true
}

func (c *RedisCache) Set(ctx context.Context, a store.Agency) {
	if c.ttl <= 0 {
		return
	}
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, agencyKey(a.ID), b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Int64("agency_id", a.ID).Msg("redis set failed")
	}
}

// Ping checks if Redis is accessible
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
