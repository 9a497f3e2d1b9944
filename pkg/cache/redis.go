// Package cache holds the Redis connection and the item read cache built on it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemsapi/pkg/config"
)

// connectTimeout bounds the startup ping.
const connectTimeout = 2 * time.Second

// RedisClient owns the process-wide Redis pool. Commands fail fast: one
// retry, sub-second read/write deadlines, and a one-second pool wait, since
// every caller falls back to the database or fails open.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to cfg.RedisURL and verifies connectivity via Ping.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("cache: REDIS_URL is empty")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	opts.ClientName = cfg.ServiceName
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 1
	opts.DialTimeout = connectTimeout
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.PoolTimeout = time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}
	return &RedisClient{client: rdb}, nil
}

// Ping implements httpx.HealthChecker.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping: %w", err)
	}
	return nil
}

// PoolStats is the readiness view of redis.PoolStats.
type PoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

// Stats snapshots the connection pool counters.
func (r *RedisClient) Stats() PoolStats {
	s := r.client.PoolStats()
	return PoolStats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
		StaleConns: s.StaleConns,
	}
}

// Close releases the pool. Safe on a nil client.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("cache: close: %w", err)
	}
	return nil
}

// Client exposes the pool to the shared rate limiter.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
