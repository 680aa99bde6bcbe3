// Package redis содержит реализацию хранилища записей страниц на Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

// Ключи Redis.
const (
	DefaultRecordsKey = "pinboard:records"
	versionKeySuffix  = ":schema_version"
)

// Константы для сообщений об ошибках.
const (
	ErrConnect      = "failed to connect to redis"
	ErrReadVersion  = "failed to read schema version"
	ErrWriteVersion = "failed to write schema version"
	ErrGetRecord    = "failed to get page record"
	ErrPutRecord    = "failed to put page record"
	ErrListRecords  = "failed to list page records"
	ErrDecodeRecord = "failed to decode page record"
	ErrEncodeRecord = "failed to encode page record"
	ErrClose        = "failed to close redis connection"
)

// ErrSchemaTooNew возвращается, если в Redis записана более новая версия схемы.
var ErrSchemaTooNew = errors.New("stored schema version is newer than supported")

// RecordRepository хранит записи в хеше Redis: поле - идентификатор страницы, значение - JSON.
type RecordRepository struct {
	client  *redis.Client
	key     string
	version int

	mu     sync.Mutex
	opened bool
}

// NewRecordRepository создает хранилище поверх клиента Redis.
func NewRecordRepository(client *redis.Client, key string, version int) *RecordRepository {
	if key == "" {
		key = DefaultRecordsKey
	}
	if version <= 0 {
		version = repositories.SchemaVersion
	}
	return &RecordRepository{client: client, key: key, version: version}
}

// Open проверяет соединение и версию схемы. Повторные вызовы ничего не делают.
func (r *RecordRepository) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opened {
		return nil
	}

	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Open"), zap.String("key", r.key))

	if err := r.client.Ping(ctx).Err(); err != nil {
		log.Error(ctx, ErrConnect, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrConnect, err)
	}

	versionKey := r.key + versionKeySuffix
	stored := 0
	raw, err := r.client.Get(ctx, versionKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("%s: %w", ErrReadVersion, err)
	default:
		stored, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrReadVersion, err)
		}
	}

	if stored > r.version {
		return fmt.Errorf("%s: stored %d, supported %d: %w", ErrReadVersion, stored, r.version, ErrSchemaTooNew)
	}
	if stored < r.version {
		log.Info(ctx, "upgrading redis record store schema", zap.Int("from", stored), zap.Int("to", r.version))
		if err := r.client.Set(ctx, versionKey, r.version, 0).Err(); err != nil {
			return fmt.Errorf("%s: %w", ErrWriteVersion, err)
		}
	}

	r.opened = true
	return nil
}

// Get получает запись по идентификатору страницы.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Get"), zap.String("id", id))

	if err := r.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	raw, err := r.client.HGet(ctx, r.key, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			log.Debug(ctx, "page record not found")
			return nil, nil
		}
		log.Error(ctx, ErrGetRecord, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	var record entities.PageRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
	}
	return &record, nil
}

// Put перезаписывает запись целиком.
func (r *RecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Put"), zap.String("id", record.ID))

	if err := r.Open(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrEncodeRecord, err)
	}

	if err := r.client.HSet(ctx, r.key, record.ID, string(raw)).Err(); err != nil {
		log.Error(ctx, ErrPutRecord, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}
	return nil
}

// GetAll возвращает все записи, упорядоченные по идентификатору.
func (r *RecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	if err := r.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}

	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		logger.Log(ctx).Error(ctx, ErrListRecords, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]*entities.PageRecord, 0, len(ids))
	for _, id := range ids {
		var record entities.PageRecord
		if err := json.Unmarshal([]byte(values[id]), &record); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
		}
		records = append(records, &record)
	}
	return records, nil
}

// Close закрывает соединение с Redis.
func (r *RecordRepository) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "closing redis record store")
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrClose, err)
	}
	return nil
}
