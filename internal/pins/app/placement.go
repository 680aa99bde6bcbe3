package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pinboard/internal/pins/app/drag"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/services"
	"pinboard/pkg/logger"
)

// DefaultPromptDelay - пауза между восстановлением панели и запросом текста.
const DefaultPromptDelay = 50 * time.Millisecond

// PromptNewNote - текст запроса заметки для новой метки.
const PromptNewNote = "Note to pin:"

// Surface - то, что режим размещения скрывает и восстанавливает.
type Surface interface {
	HidePanel(ctx context.Context)
	RestorePanel(ctx context.Context)
	SetCursor(ctx context.Context, cursor string)
}

// Placement - режим размещения метки: один перехваченный щелчок создает метку.
type Placement struct {
	annotations *AnnotationUseCase
	surface     Surface
	delay       time.Duration

	mu    sync.Mutex
	armed bool
}

// NewPlacement создает режим размещения. delay < 0 заменяется на DefaultPromptDelay.
func NewPlacement(annotations *AnnotationUseCase, surface Surface, delay time.Duration) *Placement {
	if delay < 0 {
		delay = DefaultPromptDelay
	}
	return &Placement{annotations: annotations, surface: surface, delay: delay}
}

// Armed сообщает, ждет ли режим щелчка.
func (p *Placement) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

// Enter скрывает панель, меняет курсор и взводит перехватчик щелчка.
func (p *Placement) Enter(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.armed = true
	p.surface.HidePanel(ctx)
	p.surface.SetCursor(ctx, drag.CursorCrosshair)
}

// Escape отменяет режим до щелчка. Метка не создается.
func (p *Placement) Escape(ctx context.Context) {
	if !p.disarm(ctx) {
		return
	}
	logger.Log(ctx).Debug(ctx, "pin placement cancelled")
}

// Click обрабатывает щелчок в координатах документа pos. consumed == false означает,
// что режим не был взведен и щелчок принадлежит странице.
func (p *Placement) Click(
	ctx context.Context,
	pos entities.Position,
	color entities.Color,
	prompter services.Prompter,
) (consumed bool, pin *entities.Annotation, err error) {
	if !p.disarm(ctx) {
		return false, nil, nil
	}

	timer := time.NewTimer(p.delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return true, nil, ctx.Err()
	}

	note := prompter.Prompt(ctx, PromptNewNote, "")
	if note == nil || *note == "" {
		return true, nil, nil
	}

	pin, err = p.annotations.AddPin(ctx, pos, color, *note)
	if err != nil {
		return true, nil, err
	}
	logger.Log(ctx).Debug(ctx, "pin placed", zap.String("annotation_id", pin.ID))
	return true, pin, nil
}

func (p *Placement) disarm(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.armed {
		return false
	}
	p.armed = false
	p.surface.RestorePanel(ctx)
	p.surface.SetCursor(ctx, drag.CursorDefault)
	return true
}
