// Package cache определяет интерфейсы для кэширования.
package cache

import (
	"context"
	"time"
)

// Cache определяет интерфейс кэша строковых значений.
// Get возвращает found=false без ошибки, если ключа нет.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)

	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}
