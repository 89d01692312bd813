package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

const defaultRedisPrefix = "flightscrape:"

// RedisCache shares results between processes. Entry expiry is delegated to
// Redis; a sorted set indexed by insertion time drives capacity eviction.
type RedisCache struct {
	client   redis.UniversalClient
	ttl      time.Duration
	capacity int
	prefix   string
	now      func() time.Time
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
	Capacity int
	Prefix   string
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
		Capacity: 100,
		Prefix:   defaultRedisPrefix,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheWithClient(client, cfg), nil
}

// NewRedisCacheWithClient wraps an existing client without pinging it.
func NewRedisCacheWithClient(client redis.UniversalClient, cfg RedisConfig) *RedisCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultRedisConfig().Capacity
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	return &RedisCache{
		client:   client,
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		prefix:   cfg.Prefix,
		now:      time.Now,
	}
}

func (c *RedisCache) entryKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return c.prefix + "entry:" + hex.EncodeToString(hash[:])
}

func (c *RedisCache) indexKey() string {
	return c.prefix + "index"
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.SearchResult, bool) {
	entryKey := c.entryKey(key)

	data, err := c.client.Get(ctx, entryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.client.ZRem(ctx, c.indexKey(), entryKey)
		}
		return models.SearchResult{}, false
	}

	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.SearchResult{}, false
	}

	return result, true
}

// setScript stores an entry and trims the index in one step. KEYS are the
// entry and the index; ARGV are data, ttl in ms, score, expiry cutoff and
// capacity. Evicted members are deleted alongside their index entries.
var setScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', '(' .. ARGV[4])
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
redis.call('ZADD', KEYS[2], ARGV[3], KEYS[1])
local overflow = redis.call('ZCARD', KEYS[2]) - tonumber(ARGV[5])
if overflow <= 0 then
  return 0
end
local oldest = redis.call('ZPOPMIN', KEYS[2], overflow)
for i = 1, #oldest, 2 do
  redis.call('DEL', oldest[i])
end
return overflow
`)

func (c *RedisCache) Set(ctx context.Context, key string, result models.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	var ttlMs int64
	if c.ttl > 0 {
		ttlMs = max(c.ttl.Milliseconds(), 1)
	}
	now := c.now()
	keys := []string{c.entryKey(key), c.indexKey()}
	return setScript.Run(ctx, c.client, keys,
		data,
		ttlMs,
		strconv.FormatInt(now.UnixNano(), 10),
		strconv.FormatInt(now.Add(-c.ttl).UnixNano(), 10),
		c.capacity,
	).Err()
}

// pruneExpired drops index members older than the TTL; their entries have
// already expired in Redis.
func (c *RedisCache) pruneExpired(ctx context.Context, cmd redis.Cmdable, now time.Time) *redis.IntCmd {
	if c.ttl <= 0 {
		return redis.NewIntResult(0, nil)
	}
	cutoff := now.Add(-c.ttl).UnixNano()
	return cmd.ZRemRangeByScore(ctx, c.indexKey(), "-inf", "("+strconv.FormatInt(cutoff, 10))
}

func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	keys = append(keys, c.indexKey())
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Size(ctx context.Context) int {
	if err := c.pruneExpired(ctx, c.client, c.now()).Err(); err != nil {
		return 0
	}
	count, err := c.client.ZCard(ctx, c.indexKey()).Result()
	if err != nil {
		return 0
	}
	return int(count)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
