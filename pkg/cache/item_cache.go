package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultItemCacheTTL is used when NewItemCache is given a zero TTL.
	DefaultItemCacheTTL = 5 * time.Minute

	itemCacheKeyPrefix = "item"
)

// ErrDeleted is returned by Get when the item was deleted recently and must
// not be read back from the database into the cache.
var ErrDeleted = errors.New("cache: item deleted")

// CachedItem is the read model stored in Redis.
type CachedItem struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// storeScript writes an entry unless a tombstone or a newer version is
// already there, so a late writer never overwrites fresher state.
//
// KEYS[1] item key; ARGV[1] version (updated_at, unix micros); ARGV[2] JSON
// body; ARGV[3] TTL in milliseconds.
var storeScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'deleted') == 1 then
  return 0
end
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// evictScript drops a live entry but leaves a tombstone in place.
var evictScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'deleted') == 1 then
  return 0
end
return redis.call('DEL', KEYS[1])
`)

// ItemCache stores items as Redis hashes keyed "item:{id}" holding the JSON
// body and its version. Deletes leave a tombstone for one TTL.
type ItemCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient, ttl time.Duration) *ItemCache {
	return newItemCache(r.Client(), ttl)
}

func newItemCache(rdb redis.Cmdable, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = DefaultItemCacheTTL
	}
	return &ItemCache{rdb: rdb, ttl: ttl}
}

// Get returns redis.Nil on a miss and ErrDeleted for a tombstone.
func (c *ItemCache) Get(ctx context.Context, id uuid.UUID) (*CachedItem, error) {
	vals, err := c.rdb.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	if _, ok := vals["deleted"]; ok {
		return nil, ErrDeleted
	}

	var item CachedItem
	if err := json.Unmarshal([]byte(vals["data"]), &item); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &item, nil
}

// Store writes item unless the cache already holds the same or a newer
// version, or a tombstone. It reports whether the entry was written.
func (c *ItemCache) Store(ctx context.Context, item *CachedItem) (bool, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("cache encode: %w", err)
	}
	n, err := storeScript.Run(ctx, c.rdb, []string{key(item.ID)},
		strconv.FormatInt(item.UpdatedAt.UnixMicro(), 10),
		body,
		c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache store: %w", err)
	}
	return n == 1, nil
}

// Evict drops the entry so the next read goes to the database. A tombstone
// is kept. It reports whether an entry was removed.
func (c *ItemCache) Evict(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := evictScript.Run(ctx, c.rdb, []string{key(id)}).Int()
	if err != nil {
		return false, fmt.Errorf("cache evict: %w", err)
	}
	return n == 1, nil
}

// Invalidate replaces the entry with a tombstone that expires after the TTL.
func (c *ItemCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	k := key(id)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, "deleted", 1)
	pipe.PExpire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// key builds the Redis key: "item:{id}"
func key(id uuid.UUID) string {
	return itemCacheKeyPrefix + ":" + id.String()
}
