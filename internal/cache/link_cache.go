package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

const linkCachePrefix = "link:"

// LinkCache caches resolved links by short code for the redirect hot path.
// Implementations handle cache misses gracefully by returning nil, nil.
type LinkCache interface {
	// Get retrieves a link from cache by its short code.
	// Returns nil, nil on a cache miss.
	Get(ctx context.Context, shortCode string) (*domain.ShortLink, error)

	// Set stores a link in the cache.
	Set(ctx context.Context, link *domain.ShortLink) error

	// Invalidate removes a link from the cache.
	Invalidate(ctx context.Context, shortCode string) error
}

// Compile-time interface checks
var (
	_ LinkCache = (*RedisLinkCache)(nil)
	_ LinkCache = (*NoopLinkCache)(nil)
)

// RedisLinkCache implements LinkCache using Redis.
type RedisLinkCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLinkCache connects to Redis and returns a cache with the given TTL.
func NewRedisLinkCache(addr, password string, ttl time.Duration, logger *zap.Logger) (*RedisLinkCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLinkCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Get retrieves a link from cache by its short code.
func (c *RedisLinkCache) Get(ctx context.Context, shortCode string) (*domain.ShortLink, error) {
	data, err := c.rdb.Get(ctx, linkCachePrefix+shortCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var link domain.ShortLink
	if err := json.Unmarshal(data, &link); err != nil {
		// Treat garbage as a miss; it will be overwritten on the next Set.
		c.logger.Warn("dropping unreadable cache entry", zap.String("short_code", shortCode), zap.Error(err))
		return nil, nil
	}
	return &link, nil
}

// Set stores a link in the cache.
func (c *RedisLinkCache) Set(ctx context.Context, link *domain.ShortLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, linkCachePrefix+link.ShortCode, data, c.ttl).Err()
}

// Invalidate removes a link from the cache.
func (c *RedisLinkCache) Invalidate(ctx context.Context, shortCode string) error {
	return c.rdb.Del(ctx, linkCachePrefix+shortCode).Err()
}

// Close closes the Redis connection.
func (c *RedisLinkCache) Close() error {
	return c.rdb.Close()
}

// NoopLinkCache is used when no Redis address is configured.
type NoopLinkCache struct{}

func (NoopLinkCache) Get(context.Context, string) (*domain.ShortLink, error) { return nil, nil }
func (NoopLinkCache) Set(context.Context, *domain.ShortLink) error           { return nil }
func (NoopLinkCache) Invalidate(context.Context, string) error               { return nil }
