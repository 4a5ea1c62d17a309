package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface. Values are stored as JSON.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// Fetch reads key into a fresh T. ok is false on a miss; other errors are returned.
func Fetch[T any](ctx context.Context, c Service, key string) (T, bool, error) {
	var v T
	err := c.Get(ctx, key, &v)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, ErrCacheMiss):
		return v, false, nil
	}
	return v, false, err
}
