// Package dto содержит объекты передачи данных для HTTP API сессий.
package dto

import (
	"pinboard/internal/pins/app"
	"pinboard/internal/pins/app/drag"
	"pinboard/internal/pins/domain/entities"
)

// ToggleRequest - страница, для которой включается или переключается сессия.
type ToggleRequest struct {
	Origin string `json:"origin"`
	URL    string `json:"url"`
	Body   string `json:"body"`
}

// ColorRequest - запрос на смену текущего цвета.
type ColorRequest struct {
	Color entities.Color `json:"color"`
}

// PlacementClickRequest - щелчок в режиме размещения и ответ пользователя на запрос заметки.
// Note == nil означает, что пользователь отменил ввод.
type PlacementClickRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Note *string `json:"note"`
}

// EditNoteRequest - ответ пользователя на запрос нового текста. Note == nil означает отмену.
type EditNoteRequest struct {
	Note *string `json:"note"`
}

// PointerRequest - событие указателя.
type PointerRequest struct {
	drag.PointerEvent
	PinID string `json:"pinId,omitempty"`
}

// SessionResponse - состояние сессии после обработки запроса.
type SessionResponse struct {
	SessionID string               `json:"sessionId"`
	State     app.Snapshot         `json:"state"`
	Record    *entities.PageRecord `json:"record,omitempty"`
	ShownNote *entities.Annotation `json:"shownNote,omitempty"`
	Focused   *entities.Annotation `json:"focused,omitempty"`
	Pin       *entities.Annotation `json:"pin,omitempty"`
	Consumed  *bool                `json:"consumed,omitempty"`
	Deleted   *bool                `json:"deleted,omitempty"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string        `json:"error"`
	State *app.Snapshot `json:"state,omitempty"`
}
