// Package resilient оборачивает удаленное хранилище записей повторами и Circuit Breaker.
package resilient

import (
	"context"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/internal/pins/resilience"
)

// RecordRepository выполняет каждый вызов хранилища через resilience.Service.
type RecordRepository struct {
	next repositories.RecordRepository
	svc  *resilience.Service
}

// NewRecordRepository создает декоратор над next.
func NewRecordRepository(next repositories.RecordRepository, svc *resilience.Service) repositories.RecordRepository {
	return &RecordRepository{next: next, svc: svc}
}

// Open открывает хранилище.
func (r *RecordRepository) Open(ctx context.Context) error {
	return r.svc.Execute(ctx, "Open", func() error {
		return r.next.Open(ctx)
	})
}

// Get получает запись.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.PageRecord, error) {
	return resilience.Do(ctx, r.svc, "Get", func() (*entities.PageRecord, error) {
		return r.next.Get(ctx, id)
	})
}

// Put сохраняет запись. Запись перезаписывается целиком, поэтому повтор безопасен.
func (r *RecordRepository) Put(ctx context.Context, record *entities.PageRecord) error {
	return r.svc.Execute(ctx, "Put", func() error {
		return r.next.Put(ctx, record)
	})
}

// GetAll возвращает все записи.
func (r *RecordRepository) GetAll(ctx context.Context) ([]*entities.PageRecord, error) {
	return resilience.Do(ctx, r.svc, "GetAll", func() ([]*entities.PageRecord, error) {
		return r.next.GetAll(ctx)
	})
}

// Close закрывает хранилище без повторов.
func (r *RecordRepository) Close(ctx context.Context) error {
	return r.next.Close(ctx)
}
