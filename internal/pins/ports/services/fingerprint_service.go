// Package services defines service interfaces for the pins service.
package services

import "context"

// Fingerprinter вычисляет отпечаток содержимого страницы.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, content string) string
}
