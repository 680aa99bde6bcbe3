// Package app implements application business logic for the pins service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/internal/pins/ports/services"
	"pinboard/pkg/logger"
)

// Ошибки уровня бизнес-логики.
var (
	ErrInvalidColor = errors.New("color is not in the palette")
	ErrNotActive    = errors.New("no page record is loaded")
)

// Константы для сообщений об ошибках.
const (
	ErrLoadRecord   = "failed to load page record"
	ErrSaveRecord   = "failed to save page record"
	ErrExportRecord = "failed to export page record"
)

// ExportFileName - имя файла, под которым выгружается текущая запись.
const ExportFileName = "notes-positions.json"

// AnnotationUseCase владеет текущей записью страницы и изменяет ее.
// Каждое изменение обновляет updatedAt, сохраняется целиком и перерисовывается.
type AnnotationUseCase struct {
	repo        repositories.RecordRepository
	fingerprint services.Fingerprinter
	view        services.View
	now         func() time.Time

	mu     sync.Mutex
	record *entities.PageRecord
}

// NewAnnotationUseCase создает новый экземпляр AnnotationUseCase. now == nil означает time.Now.
func NewAnnotationUseCase(
	repo repositories.RecordRepository,
	fingerprint services.Fingerprinter,
	view services.View,
	now func() time.Time,
) *AnnotationUseCase {
	if now == nil {
		now = time.Now
	}
	return &AnnotationUseCase{
		repo:        repo,
		fingerprint: fingerprint,
		view:        view,
		now:         now,
	}
}

// LoadOrCreate загружает запись страницы или создает пустую, если ее нет.
func (uc *AnnotationUseCase) LoadOrCreate(ctx context.Context, page entities.Page) (*entities.PageRecord, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := page.Identity()
	log := logger.Log(ctx).With(zap.String("method", "AnnotationUseCase.LoadOrCreate"), zap.String("id", id))

	record, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadRecord, err)
	}

	if record == nil {
		log.Info(ctx, "creating page record")
		record = entities.NewPageRecord(page, uc.fingerprint.Fingerprint(ctx, page.Body), uc.now())
		if err := uc.repo.Put(ctx, record); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrSaveRecord, err)
		}
	}

	uc.record = record
	uc.view.Render(ctx, record.Clone())
	log.Debug(ctx, "page record loaded", zap.Int("annotations", len(record.Annotations)))
	return record.Clone(), nil
}

// AddPin добавляет метку в конец последовательности. Пустая заметка ничего не создает.
func (uc *AnnotationUseCase) AddPin(
	ctx context.Context,
	position entities.Position,
	color entities.Color,
	note string,
) (*entities.Annotation, error) {
	if note == "" {
		return nil, nil
	}
	if !color.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.record == nil {
		return nil, ErrNotActive
	}

	pin := entities.NewPin(position, color, note, uc.now())
	uc.record.Annotations = append(uc.record.Annotations, pin)

	cp := *pin
	return &cp, uc.commit(ctx, "AnnotationUseCase.AddPin")
}

// EditNote заменяет текст заметки. nil означает отмену; пустая строка - допустимое значение.
func (uc *AnnotationUseCase) EditNote(ctx context.Context, id string, note *string) error {
	if note == nil {
		return nil
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	ann, err := uc.find(id)
	if err != nil || ann == nil {
		return err
	}
	ann.Note = *note
	return uc.commit(ctx, "AnnotationUseCase.EditNote")
}

// MovePin заменяет позицию метки. Вызывается только по завершении перетаскивания.
func (uc *AnnotationUseCase) MovePin(ctx context.Context, id string, position entities.Position) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ann, err := uc.find(id)
	if err != nil || ann == nil {
		return err
	}
	ann.Position = position
	return uc.commit(ctx, "AnnotationUseCase.MovePin")
}

// DeletePin удаляет метку. Подтверждение запрашивает вызывающая сторона.
func (uc *AnnotationUseCase) DeletePin(ctx context.Context, id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.record == nil {
		return ErrNotActive
	}
	if !uc.record.Remove(id) {
		logger.Log(ctx).Debug(ctx, "annotation not found, nothing to delete", zap.String("annotation_id", id))
		return nil
	}
	return uc.commit(ctx, "AnnotationUseCase.DeletePin")
}

// Annotation возвращает копию метки или nil, если ее нет.
func (uc *AnnotationUseCase) Annotation(id string) *entities.Annotation {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.record == nil {
		return nil
	}
	ann := uc.record.Find(id)
	if ann == nil {
		return nil
	}
	cp := *ann
	return &cp
}

// Record возвращает копию текущей записи или nil, если она не загружена.
func (uc *AnnotationUseCase) Record() *entities.PageRecord {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.record == nil {
		return nil
	}
	return uc.record.Clone()
}

// Export пишет текущую запись в w как JSON с отступом в два пробела.
func (uc *AnnotationUseCase) Export(w io.Writer) error {
	record := uc.Record()
	if record == nil {
		return ErrNotActive
	}
	return WriteJSON(w, record)
}

// WriteJSON пишет v в w как JSON с отступом в два пробела.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", ErrExportRecord, err)
	}
	return nil
}

// find вызывается под mu. Отсутствующая метка - не ошибка.
func (uc *AnnotationUseCase) find(id string) (*entities.Annotation, error) {
	if uc.record == nil {
		return nil, ErrNotActive
	}
	return uc.record.Find(id), nil
}

// commit вызывается под mu: обновляет updatedAt, сохраняет и перерисовывает.
// При ошибке сохранения изменение остается в памяти.
func (uc *AnnotationUseCase) commit(ctx context.Context, method string) error {
	log := logger.Log(ctx).With(zap.String("method", method), zap.String("id", uc.record.ID))

	uc.record.Touch(uc.now())
	err := uc.repo.Put(ctx, uc.record)
	uc.view.Render(ctx, uc.record.Clone())

	if err != nil {
		log.Error(ctx, ErrSaveRecord, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrSaveRecord, err)
	}
	log.Debug(ctx, "page record saved", zap.Int("annotations", len(uc.record.Annotations)))
	return nil
}
