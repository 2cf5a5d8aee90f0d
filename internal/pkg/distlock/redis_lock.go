package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript frees the lock only when the caller still owns it, so
// an instance whose TTL lapsed cannot delete a successor's hold.
// Compiled once; go-redis handles EVALSHA/EVAL fallback.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock implements DistLock on a single Redis key. Each instance
// carries a random owner token; Release is a no-op unless the key
// still holds this instance's token.
type RedisLock struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

// NewRedisLock creates a Redis-backed lock for the given key. The TTL
// bounds how long a crashed holder can block other instances.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	tok := make([]byte, 16)
	rand.Read(tok)
	return &RedisLock{
		client: client,
		key:    "lock:" + key,
		owner:  hex.EncodeToString(tok),
		ttl:    ttl,
	}
}

// Acquire tries to take the lock without blocking. Returns false when
// another instance already holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}
