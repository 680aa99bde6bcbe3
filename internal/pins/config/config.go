// Package config содержит конфигурацию сервиса меток.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "pinboard/pkg/config"
	"pinboard/pkg/logger"
)

// ServiceName используется в логах загрузки конфигурации.
const ServiceName = "pinboard"

// Константы ошибок и сообщений для конфигурации.
const (
	LogConfigSummary    = "Pinboard configuration"
	ErrFailedLoadConfig = "Failed to load configuration"
	ErrInvalidConfig    = "Invalid configuration"
)

// Config представляет полную конфигурацию сервиса.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	HTTP     HTTPConfig     `yaml:"http"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load загружает конфигурацию из переменных окружения.
// Если path не пуст, сначала читается файл (YAML или .env), затем переменные окружения.
func Load(ctx context.Context, path string) (*Config, error) {
	log := logger.Log(ctx)

	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrInvalidConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}

	log.Info(ctx, LogConfigSummary,
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout))

	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.SchemaVersion < 1 {
		return fmt.Errorf("schema version must be positive, got %d", c.Store.SchemaVersion)
	}
	if c.Session.DragThreshold < 0 {
		return fmt.Errorf("drag threshold must not be negative, got %v", c.Session.DragThreshold)
	}
	if c.Session.IdleTTL < 0 || c.Session.MaxSessions < 0 {
		return fmt.Errorf("session limits must not be negative, got ttl %v, max %d", c.Session.IdleTTL, c.Session.MaxSessions)
	}
	return nil
}
