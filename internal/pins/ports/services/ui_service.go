package services

import (
	"context"

	"pinboard/internal/pins/domain/entities"
)

// View отрисовывает состояние сессии: метки, список заметок и строку статуса.
type View interface {
	Render(ctx context.Context, record *entities.PageRecord)
	ShowNote(ctx context.Context, annotation entities.Annotation)
	// Focus прокручивает страницу к метке и подсвечивает ее.
	Focus(ctx context.Context, annotation entities.Annotation)
	SetStatus(ctx context.Context, message string)
}

// Prompter запрашивает у пользователя строку текста.
// nil означает отмену и отличается от пустой строки.
type Prompter interface {
	Prompt(ctx context.Context, message, defaultValue string) *string
}

// Confirmer запрашивает у пользователя подтверждение да/нет.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}
