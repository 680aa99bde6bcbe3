// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

// PgxPoolInterface - подмножество pgxpool.Pool, используемое репозиторием.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	Close()
}

// Константы для сообщений об ошибках.
const (
	ErrEnsureSchema = "failed to ensure page_records table"
	ErrGetRecord    = "failed to get page record"
	ErrPutRecord    = "failed to put page record"
	ErrListRecords  = "failed to list page records"
	ErrDecodeRecord = "failed to decode page record"
	ErrEncodeRecord = "failed to encode page record"
)

const (
	queryEnsureSchema = `CREATE TABLE IF NOT EXISTS page_records (
    id         TEXT PRIMARY KEY,
    record     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	queryGet    = `SELECT record FROM page_records WHERE id = $1`
	queryPut    = `INSERT INTO page_records (id, record) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()`
	queryGetAll = `SELECT record FROM page_records ORDER BY id`
)

// RecordRepository реализует интерфейс repositories.RecordRepository поверх Postgres.
type RecordRepository struct {
	pool PgxPoolInterface

	mu     sync.Mutex
	opened bool
}

// NewRecordRepository создает новый репозиторий записей страниц.
func NewRecordRepository(pool PgxPoolInterface) repositories.RecordRepository {
	return &RecordRepository{pool: pool}
}

// Open создает таблицу, если ее нет. Повторные вызовы ничего не делают.
func (r *RecordRepository) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opened {
		return nil
	}

	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Open"))
	if _, err := r.pool.Exec(ctx, queryEnsureSchema); err != nil {
		log.Error(ctx, ErrEnsureSchema, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrEnsureSchema, err)
	}
	r.opened = true
	log.Debug(ctx, "page_records table ready")
	return nil
}

// Get получает запись по идентификатору страницы.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Get"))
	log.Debug(ctx, "getting page record", zap.String("id", id))

	if err := r.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	var raw []byte
	err := r.pool.QueryRow(ctx, queryGet, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "page record not found", zap.String("id", id))
			return nil, nil
		}
		log.Error(ctx, ErrGetRecord, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	var record entities.PageRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Error(ctx, ErrDecodeRecord, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
	}
	return &record, nil
}

// Put сохраняет запись целиком.
func (r *RecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Put"))
	log.Debug(ctx, "putting page record", zap.String("id", record.ID))

	if err := r.Open(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrEncodeRecord, err)
	}

	if _, err := r.pool.Exec(ctx, queryPut, record.ID, raw); err != nil {
		log.Error(ctx, ErrPutRecord, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}
	return nil
}

// GetAll возвращает все записи.
func (r *RecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.GetAll"))

	if err := r.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}

	rows, err := r.pool.Query(ctx, queryGetAll)
	if err != nil {
		log.Error(ctx, ErrListRecords, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}
	defer rows.Close()

	records := make([]*entities.PageRecord, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			log.Error(ctx, "failed to scan page record", zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
		}
		var record entities.PageRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, "error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}

	return records, nil
}

// Close закрывает пул соединений.
func (r *RecordRepository) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, "closing postgres record store")
	r.pool.Close()
	return nil
}
