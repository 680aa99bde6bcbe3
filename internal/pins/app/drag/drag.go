// Package drag реализует единый обработчик указателя для панели и меток:
// отличает щелчок от перетаскивания и сообщает результат через Handler.
package drag

import (
	"context"
	"math"
	"sync"
)

// DefaultThreshold - смещение в пикселях, после которого нажатие считается перетаскиванием.
const DefaultThreshold = 2.0

// Курсоры документа.
const (
	CursorDefault   = "default"
	CursorGrabbing  = "grabbing"
	CursorCrosshair = "crosshair"
)

// Point - точка или смещение в пикселях.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add возвращает p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub возвращает p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// PointerEvent - событие указателя. Client - координаты окна, Page - координаты документа.
type PointerEvent struct {
	Client Point `json:"client"`
	Page   Point `json:"page"`
}

// Kind - классификация жеста.
type Kind int

// Виды жестов.
const (
	Click Kind = iota
	Drag
)

func (k Kind) String() string {
	if k == Drag {
		return "drag"
	}
	return "click"
}

// Classify возвращает Drag, если хотя бы одна компонента смещения строго больше порога.
func Classify(delta Point, threshold float64) Kind {
	if math.Abs(delta.X) > threshold || math.Abs(delta.Y) > threshold {
		return Drag
	}
	return Click
}

// Handler получает результаты жестов.
type Handler interface {
	// PanelMoved сообщает новую позицию левого верхнего угла панели.
	PanelMoved(ctx context.Context, pos Point)
	// PinPreview сообщает позицию метки во время перетаскивания, без сохранения.
	PinPreview(ctx context.Context, id string, pos Point)
	// PinActivated вызывается, если нажатие на метку оказалось щелчком.
	PinActivated(ctx context.Context, id string) error
	// PinCommitted вызывается с итоговой позицией перетащенной метки.
	PinCommitted(ctx context.Context, id string, pos Point) error
	// CursorChanged сообщает курсор документа.
	CursorChanged(ctx context.Context, cursor string)
}

// active - текущий жест. nil означает отсутствие жеста.
type active interface{ isActive() }

type panelDrag struct {
	offset Point
}

type pinDrag struct {
	id       string
	start    Point
	original Point
	hasMoved bool
}

func (*panelDrag) isActive() {}
func (*pinDrag) isActive()   {}

// Controller - конечный автомат жестов. Одновременно активен не более чем один жест.
type Controller struct {
	handler   Handler
	threshold float64

	mu     sync.Mutex
	active active
}

// NewController создает контроллер. threshold <= 0 заменяется на DefaultThreshold.
func NewController(handler Handler, threshold float64) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller{handler: handler, threshold: threshold}
}

// PanelDown начинает перетаскивание панели, левый верхний угол которой находится в topLeft.
func (c *Controller) PanelDown(ev PointerEvent, topLeft Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &panelDrag{offset: ev.Client.Sub(topLeft)}
}

// PinDown начинает жест на метке id, которая сейчас находится в original.
func (c *Controller) PinDown(ev PointerEvent, id string, original Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &pinDrag{id: id, start: ev.Page, original: original}
}

// Move обрабатывает перемещение указателя.
func (c *Controller) Move(ctx context.Context, ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a := c.active.(type) {
	case *panelDrag:
		c.handler.PanelMoved(ctx, ev.Client.Sub(a.offset))
	case *pinDrag:
		delta := ev.Page.Sub(a.start)
		if !a.hasMoved && Classify(delta, c.threshold) == Drag {
			a.hasMoved = true
		}
		if a.hasMoved {
			c.handler.PinPreview(ctx, a.id, a.original.Add(delta))
			c.handler.CursorChanged(ctx, CursorGrabbing)
		}
	}
}

// Up завершает текущий жест. Ошибка обработчика возвращается, но жест все равно сбрасывается.
func (c *Controller) Up(ctx context.Context, ev PointerEvent) error {
	c.mu.Lock()
	current := c.active
	c.active = nil
	c.mu.Unlock()

	switch a := current.(type) {
	case *panelDrag:
		return nil
	case *pinDrag:
		c.handler.CursorChanged(ctx, CursorDefault)
		if !a.hasMoved {
			return c.handler.PinActivated(ctx, a.id)
		}
		return c.handler.PinCommitted(ctx, a.id, a.original.Add(ev.Page.Sub(a.start)))
	}
	return nil
}

// Active сообщает, идет ли сейчас жест, и id метки, если это перетаскивание метки.
func (c *Controller) Active() (dragging bool, pinID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch a := c.active.(type) {
	case *panelDrag:
		return true, ""
	case *pinDrag:
		return true, a.id
	}
	return false, ""
}
