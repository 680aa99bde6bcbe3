package resilience

import (
	"context"

	"go.uber.org/zap"

	"pinboard/pkg/logger"
)

// Config объединяет настройки повторов и Circuit Breaker.
type Config struct {
	Retry   RetryConfig
	Breaker CircuitBreakerConfig
	// Permanent отмечает ошибки, которые нельзя повторять и не следует считать отказом.
	Permanent func(error) bool
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{Retry: DefaultRetryConfig(), Breaker: DefaultCircuitBreakerConfig()}
}

// Service обеспечивает отказоустойчивость вызовов к одному внешнему ресурсу.
type Service struct {
	name      string
	breaker   *CircuitBreaker
	retry     *Retry
	permanent func(error) bool
}

// NewService создает обертку отказоустойчивости.
func NewService(name string, cfg Config) *Service {
	permanent := cfg.Permanent
	if permanent == nil {
		permanent = func(error) bool { return false }
	}
	return &Service{
		name:      name,
		breaker:   NewCircuitBreaker(name, cfg.Breaker, nil),
		retry:     NewRetry(name, cfg.Retry, func(err error) bool { return Transient(err) && !permanent(err) }),
		permanent: permanent,
	}
}

// Breaker возвращает Circuit Breaker сервиса.
func (s *Service) Breaker() *CircuitBreaker {
	return s.breaker
}

// Execute выполняет операцию через Circuit Breaker и повторы.
func (s *Service) Execute(ctx context.Context, operation string, fn func() error) error {
	logger.Log(ctx).Debug(ctx, "executing operation with resilience",
		zap.String("service", s.name), zap.String("operation", operation))

	return s.breaker.Execute(ctx, func() error {
		return s.retry.Execute(ctx, fn)
	}, func(err error) bool { return Transient(err) && !s.permanent(err) })
}

// Do выполняет операцию с результатом через Circuit Breaker и повторы.
func Do[T any](ctx context.Context, s *Service, operation string, fn func() (T, error)) (T, error) {
	var result T
	err := s.Execute(ctx, operation, func() error {
		var err error
		result, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
