// Package idempotency guards concurrent order placement that shares an
// idempotency key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 60 * time.Second

var ErrInFlight = errors.New("request with this idempotency key is in progress")

type Locker interface {
	// Acquire returns a release func, or ErrInFlight when the key is held.
	Acquire(ctx context.Context, key string) (func(), error)
}

func OrderKey(userID uint, key string) string {
	return fmt.Sprintf("idem:order:%d:%s", userID, key)
}

// maxChargeKeyLen is the processor's limit on idempotency keys.
const maxChargeKeyLen = 255

// ChargeKey scopes a client key to its user. Processor keys are account wide,
// so two users sending the same key must not collide.
func ChargeKey(userID uint, key string) string {
	k := fmt.Sprintf("order:%d:%s", userID, key)
	if len(k) <= maxChargeKeyLen {
		return k
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("order:%d:sha256:%s", userID, hex.EncodeToString(sum[:]))
}

type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// compare-and-delete so an expired lock taken over by another request is not released by us
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}

// MemoryLocker is the single-process fallback when Redis is not configured.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]struct{}{}}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrInFlight
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
