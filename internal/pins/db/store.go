// Package db собирает хранилище записей страниц по конфигурации.
package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	cacheadapter "pinboard/internal/pins/adapters/cache"
	"pinboard/internal/pins/adapters/cached"
	pgrepo "pinboard/internal/pins/adapters/postgres"
	redisrepo "pinboard/internal/pins/adapters/redis"
	"pinboard/internal/pins/adapters/resilient"
	"pinboard/internal/pins/adapters/sqlite"
	"pinboard/internal/pins/config"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/internal/pins/resilience"
	pinsmigrations "pinboard/migrations/pins"
	"pinboard/pkg/db/postgres"
	redisdb "pinboard/pkg/db/redis"
	"pinboard/pkg/logger"
)

// Константы для сообщений logger и ошибок.
const (
	LogOpeningStore  = "opening record store"
	LogStoreReady    = "record store ready"
	LogMigrated      = "postgres migrations applied"
	ErrUnknownStore  = "unknown record store backend"
	ErrMigrate       = "failed to migrate postgres"
	ErrConnectStore  = "failed to connect record store"
	ErrOpenStore     = "failed to open record store"
	ErrConnectCache  = "failed to connect record cache"
	resilienceSuffix = "-record-store"
)

// ErrUnsupportedBackend возвращается для неизвестного значения store.backend.
var ErrUnsupportedBackend = errors.New(ErrUnknownStore)

// Open создает, оборачивает и открывает хранилище выбранного типа.
// Удаленные хранилища защищаются повторами и Circuit Breaker, поверх может стоять кэш Redis.
func Open(ctx context.Context, cfg *config.Config) (repositories.RecordRepository, error) {
	log := logger.Log(ctx).With(
		zap.String("method", "db.Open"),
		zap.String("backend", cfg.Store.Backend))
	log.Info(ctx, LogOpeningStore)

	repo, remote, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if remote && cfg.Store.Resilient {
		repo = resilient.NewRecordRepository(repo, resilience.NewService(cfg.Store.Backend+resilienceSuffix, resilience.Config{
			Retry:     resilience.DefaultRetryConfig(),
			Breaker:   resilience.DefaultCircuitBreakerConfig(),
			Permanent: isPermanent,
		}))
	}

	if cfg.Cache.Enabled {
		client, err := redisdb.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("%s: %w", ErrConnectCache, err)
		}
		repo = cached.NewRecordRepository(repo, cacheadapter.NewRedisCache(client, cfg.Cache.Prefix, cfg.Cache.TTL), cfg.Cache.TTL)
	}

	if err := repo.Open(ctx); err != nil {
		_ = repo.Close(ctx)
		log.Error(ctx, ErrOpenStore, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrOpenStore, err)
	}

	log.Info(ctx, LogStoreReady, zap.Bool("cache", cfg.Cache.Enabled))
	return repo, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (repositories.RecordRepository, bool, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		return sqlite.NewRecordRepository(cfg.Store.SQLitePath, cfg.Store.SchemaVersion), false, nil

	case config.BackendPostgres:
		version, err := postgres.Migrate(ctx, cfg.Postgres.GetConnectionURL(), pinsmigrations.FS, pinsmigrations.Dir)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", ErrMigrate, err)
		}
		logger.Log(ctx).Info(ctx, LogMigrated, zap.Uint("version", version))

		pool, err := postgres.New(ctx, cfg.Postgres.GetDSN(), cfg.Postgres.MinConn, cfg.Postgres.MaxConn)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", ErrConnectStore, err)
		}
		return pgrepo.NewRecordRepository(pool), true, nil

	case config.BackendRedis:
		client, err := redisdb.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", ErrConnectStore, err)
		}
		return redisrepo.NewRecordRepository(client, cfg.Store.RedisKey, cfg.Store.SchemaVersion), true, nil

	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Store.Backend)
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, redisrepo.ErrSchemaTooNew) || errors.Is(err, sqlite.ErrSchemaTooNew)
}
