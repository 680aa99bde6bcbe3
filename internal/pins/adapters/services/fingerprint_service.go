// Package services содержит реализации сервисов домена pins.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"strconv"

	"go.uber.org/zap"

	"pinboard/internal/pins/ports/services"
	"pinboard/pkg/logger"
)

// DigestFunc вычисляет криптографический хеш содержимого.
type DigestFunc func(data []byte) ([]byte, error)

const (
	LogDigestUnavailable = "digest unavailable, using random fingerprint"
)

// SHA256Fingerprinter вычисляет отпечаток страницы как hex SHA-256.
// Если digest недоступен, возвращает случайный токен: отпечаток служит
// только метаданными и не используется как ключ.
type SHA256Fingerprinter struct {
	digest DigestFunc
}

// NewSHA256Fingerprinter создает сервис отпечатков на crypto/sha256.
func NewSHA256Fingerprinter() services.Fingerprinter {
	return NewFingerprinter(sha256Digest)
}

// NewFingerprinter создает сервис отпечатков с заданной функцией хеширования.
// nil означает, что хеширование недоступно.
func NewFingerprinter(digest DigestFunc) *SHA256Fingerprinter {
	return &SHA256Fingerprinter{digest: digest}
}

// Fingerprint возвращает отпечаток содержимого. Никогда не завершается ошибкой.
func (f *SHA256Fingerprinter) Fingerprint(ctx context.Context, content string) string {
	if f.digest == nil {
		logger.Log(ctx).Debug(ctx, LogDigestUnavailable)
		return randomToken()
	}
	sum, err := f.digest([]byte(content))
	if err != nil {
		logger.Log(ctx).Warn(ctx, LogDigestUnavailable, zap.Error(err))
		return randomToken()
	}
	return hex.EncodeToString(sum)
}

func sha256Digest(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func randomToken() string {
	return strconv.FormatUint(rand.Uint64(), 36)
}
