// Package cooldown throttles repeated user actions, such as tapping a
// reaction button several times in a row. It is a courtesy limit and nothing
// relies on it for correctness.
package cooldown

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Limiter reports whether an action identified by key may run now. Once it
// returns true, the same key is refused until the cooldown has elapsed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New returns a Redis backed limiter when rdb is set and an in-memory one
// otherwise. A zero duration disables the cooldown.
func New(rdb *redis.Client, d time.Duration) Limiter {
	if d <= 0 {
		return Disabled{}
	}
	if rdb != nil {
		return NewRedisLimiter(rdb, d)
	}
	return NewMemoryLimiter(d)
}

// Key builds the key for one user performing one action on one target.
func Key(userID int, action, target string, targetID int) string {
	return "cooldown:" + action + ":" + target + ":" + strconv.Itoa(targetID) + ":" + strconv.Itoa(userID)
}

type Disabled struct{}

func (Disabled) Allow(context.Context, string) (bool, error) {
	return true, nil
}

type MemoryLimiter struct {
	mu       sync.Mutex
	duration time.Duration
	until    map[string]time.Time
	now      func() time.Time
}

func NewMemoryLimiter(d time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		duration: d,
		until:    map[string]time.Time{},
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.until[key]; ok && now.Before(until) {
		return false, nil
	}
	l.until[key] = now.Add(l.duration)

	// Drop expired keys now and then so the map doesn't grow forever.
	if len(l.until) > 1024 {
		for k, until := range l.until {
			if !now.Before(until) {
				delete(l.until, k)
			}
		}
	}
	return true, nil
}

type RedisLimiter struct {
	rdb      *redis.Client
	duration time.Duration
}

func NewRedisLimiter(rdb *redis.Client, d time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, duration: d}
}

// Allow claims the key with SET NX and an expiry, so the first caller wins
// across every API process sharing the Redis instance.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, key, 1, l.duration).Result()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return ok, nil
}
