package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the counter and starts its expiry on the first hit of a window.
// Returns {count, remaining ttl in ms}.
const hitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// RedisStore is a Store shared by all replicas. Redis key expiry replaces sweeping.
type RedisStore struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store that keeps windows under prefix+key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(hitScript),
		prefix: prefix,
		now:    time.Now,
	}
}

// Hit records one request for key.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Window, error) {
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	res, err := s.script.Run(ctx, s.client, []string{s.prefix + key}, ttl).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(res) != 2 {
		return Window{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	return Window{
		Count:   int(res[0]),
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
