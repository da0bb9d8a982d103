package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// The TTL outlives a daily schedule so a crashed worker cannot wedge the
// lock forever, while still expiring before the run after next.
const defaultLockTTL = 25 * time.Hour

// Lock guards a cron run so only one worker replica executes it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock with a SETNX token plus TTL. The token makes
// release safe: a replica that lost the lock to expiry cannot delete the
// key a newer holder wrote.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	token  string
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("cron lock requires a redis client")
	}
	if key == "" {
		return nil, errors.New("cron lock requires a key")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire claims the lock for this replica until Release or TTL expiry.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire cron lock: %w", err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release frees the lock only when this replica's token still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read cron lock holder: %w", err)
	}
	if value != l.token {
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release cron lock: %w", err)
	}
	l.token = ""
	return nil
}
