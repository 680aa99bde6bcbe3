package config

import (
	"fmt"
	"time"
)

// HTTPConfig представляет конфигурацию HTTP сервера.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"PINBOARD_HTTP_HOST" env-default:"127.0.0.1"`
	Port         int           `yaml:"port" env:"PINBOARD_HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"PINBOARD_HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"PINBOARD_HTTP_WRITE_TIMEOUT" env-default:"10s"`
}

// GetAddress возвращает адрес HTTP сервера.
func (c *HTTPConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig содержит настройки взаимодействия с оверлеем.
type SessionConfig struct {
	DragThreshold float64       `yaml:"drag_threshold" env:"PINBOARD_DRAG_THRESHOLD" env-default:"2"`
	PromptDelay   time.Duration `yaml:"prompt_delay" env:"PINBOARD_PROMPT_DELAY" env-default:"50ms"`
	// IdleTTL - время простоя, после которого сессия оверлея удаляется из памяти.
	IdleTTL     time.Duration `yaml:"idle_ttl" env:"PINBOARD_SESSION_TTL" env-default:"30m"`
	MaxSessions int           `yaml:"max_sessions" env:"PINBOARD_SESSION_MAX" env-default:"1000"`
}
