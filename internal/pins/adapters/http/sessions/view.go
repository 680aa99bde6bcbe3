package sessions

import (
	"context"
	"sync"

	"pinboard/internal/pins/domain/entities"
)

// recordingView запоминает одноразовые события: показанную и выделенную заметки.
// Запись и статус клиент оверлея получает из снимка сессии.
type recordingView struct {
	mu      sync.Mutex
	shown   *entities.Annotation
	focused *entities.Annotation
}

func (v *recordingView) Render(context.Context, *entities.PageRecord) {}

func (v *recordingView) ShowNote(_ context.Context, annotation entities.Annotation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = &annotation
}

func (v *recordingView) Focus(_ context.Context, annotation entities.Annotation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused = &annotation
}

func (v *recordingView) SetStatus(context.Context, string) {}

// drain возвращает показанную и выделенную заметки и сбрасывает их: это одноразовые события.
func (v *recordingView) drain() (shown, focused *entities.Annotation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	shown, focused = v.shown, v.focused
	v.shown, v.focused = nil, nil
	return shown, focused
}

// answer - ответ пользователя, пришедший вместе с запросом.
type answer struct {
	note *string
}

func (a answer) Prompt(context.Context, string, string) *string {
	return a.note
}

type confirmation bool

func (c confirmation) Confirm(context.Context, string) bool {
	return bool(c)
}
