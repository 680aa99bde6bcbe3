package config

import (
	"fmt"
	"time"

	redisdb "pinboard/pkg/db/redis"
)

// Поддерживаемые хранилища записей.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// StoreConfig выбирает хранилище записей.
type StoreConfig struct {
	Backend       string `yaml:"backend" env:"PINBOARD_STORE_BACKEND" env-default:"sqlite"`
	SQLitePath    string `yaml:"sqlite_path" env:"PINBOARD_STORE_SQLITE_PATH" env-default:"data/pinboard.db"`
	SchemaVersion int    `yaml:"schema_version" env:"PINBOARD_STORE_SCHEMA_VERSION" env-default:"2"`
	RedisKey      string `yaml:"redis_key" env:"PINBOARD_STORE_REDIS_KEY" env-default:"pinboard:records"`
	// Resilient включает повторы и Circuit Breaker для удаленных хранилищ.
	Resilient bool `yaml:"resilient" env:"PINBOARD_STORE_RESILIENT" env-default:"true"`
}

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"PINBOARD_POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PINBOARD_POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PINBOARD_POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PINBOARD_POSTGRES_PASSWORD" env-default:"postgres"`
	Database string `yaml:"database" env:"PINBOARD_POSTGRES_DB" env-default:"pinboard"`
	MinConn  int    `yaml:"min_conn" env:"PINBOARD_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn  int    `yaml:"max_conn" env:"PINBOARD_POSTGRES_MAX_CONN" env-default:"10"`
}

// GetDSN возвращает строку подключения к Postgres.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

// GetConnectionURL возвращает URL-строку подключения для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// RedisConfig представляет конфигурацию для Redis.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"PINBOARD_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"PINBOARD_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"PINBOARD_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"PINBOARD_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"PINBOARD_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"PINBOARD_REDIS_TIMEOUT" env-default:"5s"`
}

// ClientConfig переводит настройки в конфигурацию клиента Redis.
func (r *RedisConfig) ClientConfig() *redisdb.Config {
	return &redisdb.Config{
		Host:     r.Host,
		Port:     r.Port,
		Password: r.Password,
		DB:       r.DB,
		PoolSize: r.PoolSize,
		Timeout:  r.Timeout,
	}
}

// CacheConfig включает кэш записей в Redis перед основным хранилищем.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" env:"PINBOARD_CACHE_ENABLED" env-default:"false"`
	Prefix  string        `yaml:"prefix" env:"PINBOARD_CACHE_PREFIX" env-default:"pinboard:cache:"`
	TTL     time.Duration `yaml:"ttl" env:"PINBOARD_CACHE_TTL" env-default:"15m"`
}
