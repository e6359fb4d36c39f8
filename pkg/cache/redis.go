package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNetwork marks a Redis failure that is worth retrying.
var ErrNetwork = errors.New("redis unavailable")

// errMiss is how a missing key travels through retry.
var errMiss = errors.New("cache miss")

// Retry defaults for [RedisCache].
const (
	DefaultRedisAttempts = 3
	DefaultRedisBackoff  = 200 * time.Millisecond
)

// RedisConfig configures a [RedisCache].
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL. It takes precedence over Addr.
	URL      string
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key.
	Prefix string
	// Attempts and Backoff control retries of transient failures. The
	// delay doubles after each attempt. Zero values use the defaults.
	Attempts int
	Backoff  time.Duration
}

// RedisCache stores layouts and artifacts in a Redis instance shared by
// several kintree servers. Network failures are retried; a missing key is a
// plain miss.
type RedisCache struct {
	client   *redis.Client
	prefix   string
	attempts int
	backoff  time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := &RedisCache{client: client, prefix: cfg.Prefix, attempts: cfg.Attempts, backoff: cfg.Backoff}
	if c.attempts <= 0 {
		c.attempts = DefaultRedisAttempts
	}
	if c.backoff <= 0 {
		c.backoff = DefaultRedisBackoff
	}
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := retry(ctx, c.attempts, c.backoff, func() error {
		v, err := c.client.Get(ctx, c.prefix+key).Bytes()
		data = v
		return classify(err)
	})
	switch {
	case errors.Is(err, errMiss):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return retry(ctx, c.attempts, c.backoff, func() error {
		return classify(c.client.Set(ctx, c.prefix+key, data, ttl).Err())
	})
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return retry(ctx, c.attempts, c.backoff, func() error {
		return classify(c.client.Del(ctx, c.prefix+key).Err())
	})
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classify maps redis errors onto errMiss, ErrNetwork or, for cancellation,
// the context error itself.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return errMiss
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// retry runs fn up to attempts times while it fails with ErrNetwork,
// doubling the delay between attempts.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, ErrNetwork) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}

var _ Cache = (*RedisCache)(nil)
