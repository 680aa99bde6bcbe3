package entities

import (
	"time"

	"github.com/google/uuid"
)

// TypePin - единственный используемый тип аннотации.
const TypePin = "pin"

const annotationIDPrefix = "ann_"

// Color - цвет заметки из фиксированной палитры.
type Color string

// Палитра.
const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorBlue   Color = "blue"
)

// DefaultColor используется при старте сессии и для неизвестных цветов при отрисовке.
const DefaultColor = ColorYellow

var palette = map[Color]string{
	ColorYellow: "rgba(255, 235, 59, 1)",
	ColorGreen:  "rgba(76, 175, 80, 1)",
	ColorPink:   "rgba(233, 30, 99, 1)",
	ColorBlue:   "rgba(33, 150, 243, 1)",
}

// Palette возвращает цвета в порядке отображения.
func Palette() []Color {
	return []Color{ColorYellow, ColorGreen, ColorPink, ColorBlue}
}

// Valid сообщает, входит ли цвет в палитру.
func (c Color) Valid() bool {
	_, ok := palette[c]
	return ok
}

// Display возвращает CSS-значение цвета; неизвестные цвета отображаются желтым.
func (c Color) Display() string {
	if v, ok := palette[c]; ok {
		return v
	}
	return palette[DefaultColor]
}

// Position - абсолютные координаты в документе.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Annotation представляет собой заметку, прикрепленную к точке страницы.
type Annotation struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Position  Position `json:"position"`
	Color     Color    `json:"color"`
	Note      string   `json:"note"`
	CreatedAt string   `json:"createdAt"`
}

// NewPin создает pin с новым уникальным ID.
func NewPin(position Position, color Color, note string, now time.Time) *Annotation {
	return &Annotation{
		ID:        NewAnnotationID(),
		Type:      TypePin,
		Position:  position,
		Color:     color,
		Note:      note,
		CreatedAt: FormatTime(now),
	}
}

// NewAnnotationID генерирует идентификатор аннотации.
func NewAnnotationID() string {
	return annotationIDPrefix + uuid.NewString()
}
