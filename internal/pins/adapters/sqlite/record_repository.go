// Package sqlite provides the local SQLite implementation of the record store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	// Регистрирует драйвер "sqlite".
	_ "modernc.org/sqlite"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

const (
	driverName = "sqlite"
	memoryPath = ":memory:"
)

// Константы для сообщений logger.
const (
	LogOpening       = "opening sqlite record store"
	LogUpgrading     = "upgrading sqlite record store schema"
	LogOpened        = "sqlite record store opened"
	LogRecordMissing = "page record not found"
)

// Константы для сообщений об ошибках.
const (
	ErrOpenDatabase  = "failed to open sqlite database"
	ErrApplyPragma   = "failed to apply pragma"
	ErrReadVersion   = "failed to read schema version"
	ErrUpgradeSchema = "failed to upgrade schema"
	ErrGetRecord     = "failed to get page record"
	ErrPutRecord     = "failed to put page record"
	ErrListRecords   = "failed to list page records"
	ErrDecodeRecord  = "failed to decode page record"
	ErrEncodeRecord  = "failed to encode page record"
)

// ErrSchemaTooNew возвращается, если файл создан более новой версией схемы.
var ErrSchemaTooNew = errors.New("stored schema version is newer than supported")

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// RecordRepository хранит записи страниц в одной таблице SQLite в виде JSON.
type RecordRepository struct {
	path    string
	version int

	mu sync.Mutex
	db *sql.DB
}

// NewRecordRepository создает хранилище для файла path; ":memory:" - для тестов.
func NewRecordRepository(path string, version int) *RecordRepository {
	if version <= 0 {
		version = repositories.SchemaVersion
	}
	return &RecordRepository{path: path, version: version}
}

// Open открывает базу и при необходимости обновляет схему. Повторные вызовы
// возвращают уже открытое соединение.
func (r *RecordRepository) Open(ctx context.Context) error {
	_, err := r.handle(ctx)
	return err
}

func (r *RecordRepository) handle(ctx context.Context) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}

	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Open"), zap.String("path", r.path))
	log.Info(ctx, LogOpening, zap.Int("version", r.version))

	if r.path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenDatabase, err)
		}
	}

	db, err := sql.Open(driverName, r.path)
	if err != nil {
		log.Error(ctx, ErrOpenDatabase, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrOpenDatabase, err)
	}
	if r.path == memoryPath {
		// каждое соединение с ":memory:" - отдельная база
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			log.Error(ctx, ErrApplyPragma, zap.String("pragma", p), zap.Error(err))
			return nil, fmt.Errorf("%s %q: %w", ErrApplyPragma, p, err)
		}
	}

	if err := r.upgrade(ctx, db); err != nil {
		_ = db.Close()
		log.Error(ctx, ErrUpgradeSchema, zap.Error(err))
		return nil, err
	}

	r.db = db
	log.Info(ctx, LogOpened)
	return db, nil
}

// upgrade создает таблицу, если сохраненная версия меньше текущей.
// Существующие данные не затрагиваются.
func (r *RecordRepository) upgrade(ctx context.Context, db *sql.DB) error {
	var stored int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stored); err != nil {
		return fmt.Errorf("%s: %w", ErrReadVersion, err)
	}
	if stored > r.version {
		return fmt.Errorf("%s: stored %d, supported %d: %w", ErrUpgradeSchema, stored, r.version, ErrSchemaTooNew)
	}
	if stored == r.version {
		return nil
	}

	logger.Log(ctx).Info(ctx, LogUpgrading, zap.Int("from", stored), zap.Int("to", r.version))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrUpgradeSchema, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS annotations (
		id     TEXT PRIMARY KEY,
		record TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("%s: %w", ErrUpgradeSchema, err)
	}
	// PRAGMA не поддерживает параметры
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", r.version)); err != nil {
		return fmt.Errorf("%s: %w", ErrUpgradeSchema, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", ErrUpgradeSchema, err)
	}
	return nil
}

// Get возвращает запись по идентификатору страницы или nil.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Get"))

	db, err := r.handle(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	var raw string
	err = db.QueryRowContext(ctx, `SELECT record FROM annotations WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug(ctx, LogRecordMissing, zap.String("id", id))
			return nil, nil
		}
		log.Error(ctx, ErrGetRecord, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetRecord, err)
	}

	var record entities.PageRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Error(ctx, ErrDecodeRecord, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
	}
	return &record, nil
}

// Put создает или перезаписывает запись целиком.
func (r *RecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.Put"))
	log.Debug(ctx, "putting page record", zap.String("id", record.ID), zap.Int("annotations", len(record.Annotations)))

	db, err := r.handle(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrEncodeRecord, err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO annotations (id, record) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		record.ID, string(raw),
	)
	if err != nil {
		log.Error(ctx, ErrPutRecord, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrPutRecord, err)
	}
	return nil
}

// GetAll возвращает все записи, упорядоченные по идентификатору.
func (r *RecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	log := logger.Log(ctx).With(zap.String("method", "RecordRepository.GetAll"))

	db, err := r.handle(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT record FROM annotations ORDER BY id`)
	if err != nil {
		log.Error(ctx, ErrListRecords, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}
	defer rows.Close()

	records := make([]*entities.PageRecord, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
		}
		var record entities.PageRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrDecodeRecord, err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrListRecords, err)
	}
	return records, nil
}

// Close закрывает соединение, если оно было открыто.
func (r *RecordRepository) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	logger.Log(ctx).Info(ctx, "closing sqlite record store", zap.String("path", r.path))
	err := r.db.Close()
	r.db = nil
	return err
}
