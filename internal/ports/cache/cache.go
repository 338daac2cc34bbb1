package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss ключа нет в кэше
var ErrMiss = errors.New("cache miss")

// Cache строковый кэш с TTL; Get возвращает ErrMiss для отсутствующего ключа
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
