// Package cached содержит декоратор хранилища записей с кэшем.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/cache"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

// Константы для логирования.
const (
	LogCacheHit        = "page record served from cache"
	LogCacheMiss       = "page record cache miss"
	LogCacheReadFailed = "cache read failed, falling back to store"
	LogCacheWriteFail  = "cache write failed"
	LogCacheDecodeFail = "cached page record is corrupt, dropping it"

	ErrEncodeRecord = "failed to encode page record for cache"
)

// RecordRepository - read-through/write-through кэш поверх любого хранилища записей.
// Ошибки кэша только логируются.
type RecordRepository struct {
	next  repositories.RecordRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewRecordRepository оборачивает хранилище next кэшем c.
func NewRecordRepository(next repositories.RecordRepository, c cache.Cache, ttl time.Duration) repositories.RecordRepository {
	return &RecordRepository{next: next, cache: c, ttl: ttl}
}

// Open открывает нижележащее хранилище.
func (r *RecordRepository) Open(ctx context.Context) error {
	return r.next.Open(ctx)
}

// Get сначала смотрит в кэш, затем в хранилище.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "CachedRecordRepository.Get"), zap.String("id", id))

	raw, found, err := r.cache.Get(ctx, id)
	switch {
	case err != nil:
		log.Warn(ctx, LogCacheReadFailed, zap.Error(err))
	case found:
		var record entities.PageRecord
		if err := json.Unmarshal([]byte(raw), &record); err == nil {
			log.Debug(ctx, LogCacheHit)
			return &record, nil
		}
		log.Warn(ctx, LogCacheDecodeFail)
		r.drop(ctx, id)
	default:
		log.Debug(ctx, LogCacheMiss)
	}

	record, err := r.next.Get(ctx, id)
	if err != nil || record == nil {
		return record, err
	}
	r.store(ctx, record)
	return record, nil
}

// Put пишет в хранилище и обновляет кэш.
func (r *RecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	if err := r.next.Put(ctx, record); err != nil {
		r.drop(ctx, record.ID)
		return err
	}
	r.store(ctx, record)
	return nil
}

// GetAll всегда читает из хранилища.
func (r *RecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	return r.next.GetAll(ctx)
}

// Close закрывает хранилище и кэш.
func (r *RecordRepository) Close(ctx context.Context) error {
	storeErr := r.next.Close(ctx)
	if err := r.cache.Close(); err != nil {
		logger.Log(ctx).Warn(ctx, "failed to close cache", zap.Error(err))
	}
	return storeErr
}

func (r *RecordRepository) store(ctx context.Context, record *entities.PageRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		logger.Log(ctx).Warn(ctx, fmt.Sprintf("%s: %v", ErrEncodeRecord, err))
		r.drop(ctx, record.ID)
		return
	}
	// Старое значение не должно пережить неудачную запись.
	if err := r.cache.Set(ctx, record.ID, string(raw), r.ttl); err != nil {
		logger.Log(ctx).Warn(ctx, LogCacheWriteFail, zap.String("id", record.ID), zap.Error(err))
		r.drop(ctx, record.ID)
	}
}

func (r *RecordRepository) drop(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.Log(ctx).Warn(ctx, LogCacheWriteFail, zap.String("id", id), zap.Error(err))
	}
}
