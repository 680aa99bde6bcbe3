// Package repositories defines repository interfaces for the pins service.
package repositories

import (
	"context"

	"pinboard/internal/pins/domain/entities"
)

// SchemaVersion - текущая версия схемы хранилища записей.
const SchemaVersion = 2

// RecordRepository определяет интерфейс хранилища записей страниц.
type RecordRepository interface {
	// Open идемпотентно инициализирует хранилище и схему.
	Open(ctx context.Context) error
	// Get возвращает запись или nil, если ее нет.
	Get(ctx context.Context, id string) (*entities.PageRecord, error)
	// Put создает или полностью перезаписывает запись.
	Put(ctx context.Context, record *entities.PageRecord) error
	GetAll(ctx context.Context) ([]*entities.PageRecord, error)
	Close(ctx context.Context) error
}
