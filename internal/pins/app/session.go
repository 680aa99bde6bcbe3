package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"pinboard/internal/pins/app/drag"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/services"
	"pinboard/pkg/logger"
)

// Сообщения строки статуса.
const (
	StatusLoading      = "Loading..."
	StatusReady        = "Ready."
	StatusStorageError = "Storage error"
	StatusNotActive    = "Not active"
	StatusUnknownColor = "Unknown color"
)

// Тексты запросов к пользователю.
const (
	PromptEditNote    = "Edit note:"
	ConfirmDeleteNote = "Delete this note?"
)

// DefaultPanelPosition - начальная позиция панели.
var DefaultPanelPosition = drag.Point{X: 20, Y: 20}

// SessionConfig содержит настройки сессии.
type SessionConfig struct {
	DragThreshold float64
	PromptDelay   time.Duration
	PanelPosition drag.Point
}

// PinPreview - позиция метки во время перетаскивания, еще не сохраненная.
type PinPreview struct {
	ID       string            `json:"id"`
	Position entities.Position `json:"position"`
}

// Snapshot - состояние панели сессии.
type Snapshot struct {
	Active      bool           `json:"active"`
	Visible     bool           `json:"visible"`
	Minimized   bool           `json:"minimized"`
	PanelHidden bool           `json:"panelHidden"`
	Placing     bool           `json:"placing"`
	Color       entities.Color `json:"color"`
	Panel       drag.Point     `json:"panel"`
	Cursor      string         `json:"cursor"`
	Status      string         `json:"status"`
	Preview     *PinPreview    `json:"preview,omitempty"`
}

// Session - контекст одной страницы: модель заметок, жесты указателя, режим размещения и состояние панели.
// Все методы сериализуются мьютексом.
type Session struct {
	page        entities.Page
	annotations *AnnotationUseCase
	view        services.View
	drag        *drag.Controller
	placement   *Placement

	mu          sync.Mutex
	active      bool
	visible     bool
	minimized   bool
	panelHidden bool
	color       entities.Color
	panel       drag.Point
	cursor      string
	status      string
	preview     *PinPreview
}

// NewSession создает неактивную сессию для страницы page.
func NewSession(page entities.Page, annotations *AnnotationUseCase, view services.View, cfg SessionConfig) *Session {
	if cfg.PanelPosition == (drag.Point{}) {
		cfg.PanelPosition = DefaultPanelPosition
	}
	s := &Session{
		page:        page,
		annotations: annotations,
		view:        view,
		color:       entities.DefaultColor,
		panel:       cfg.PanelPosition,
		cursor:      drag.CursorDefault,
	}
	s.drag = drag.NewController(dragHandler{s}, cfg.DragThreshold)
	s.placement = NewPlacement(annotations, surface{s}, cfg.PromptDelay)
	return s
}

// Page возвращает страницу сессии.
func (s *Session) Page() entities.Page {
	return s.page
}

// Toggle при первом вызове загружает запись и показывает панель.
// Повторные вызовы скрывают или показывают панель; при показе запись перечитывается.
func (s *Session) Toggle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.Log(ctx).With(zap.String("method", "Session.Toggle"), zap.String("page", s.page.Identity()))

	if s.active {
		s.visible = !s.visible
		log.Debug(ctx, "panel visibility toggled", zap.Bool("visible", s.visible))
		if !s.visible {
			return nil
		}
	}

	if err := s.load(ctx); err != nil {
		return err
	}
	if !s.active {
		log.Info(ctx, "session activated")
	}
	s.active = true
	s.visible = true
	return nil
}

// ToggleMinimize сворачивает или разворачивает панель.
func (s *Session) ToggleMinimize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minimized = !s.minimized
	logger.Log(ctx).Debug(ctx, "panel minimize toggled", zap.Bool("minimized", s.minimized))
}

// SetColor выбирает цвет для новых меток.
func (s *Session) SetColor(ctx context.Context, color entities.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !color.Valid() {
		return s.fail(ctx, ErrInvalidColor)
	}
	s.color = color
	return nil
}

// EnterPlacement включает режим размещения метки.
func (s *Session) EnterPlacement(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return s.fail(ctx, ErrNotActive)
	}
	s.placement.Enter(ctx)
	return nil
}

// PlacementClick передает щелчок режиму размещения.
// consumed == false означает, что режим не был включен.
func (s *Session) PlacementClick(
	ctx context.Context,
	pos entities.Position,
	prompter services.Prompter,
) (consumed bool, pin *entities.Annotation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consumed, pin, err = s.placement.Click(ctx, pos, s.color, prompter)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return consumed, pin, s.fail(ctx, err)
	}
	return consumed, pin, err
}

// PlacementEscape отменяет режим размещения.
func (s *Session) PlacementEscape(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement.Escape(ctx)
}

// EditNote запрашивает новый текст, подставляя текущий. Отмена ничего не меняет.
func (s *Session) EditNote(ctx context.Context, id string, prompter services.Prompter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return s.fail(ctx, ErrNotActive)
	}
	ann := s.annotations.Annotation(id)
	if ann == nil {
		return nil
	}
	note := prompter.Prompt(ctx, PromptEditNote, ann.Note)
	if err := s.annotations.EditNote(ctx, id, note); err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// DeletePin удаляет метку после подтверждения пользователя.
func (s *Session) DeletePin(ctx context.Context, id string, confirmer services.Confirmer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false, s.fail(ctx, ErrNotActive)
	}
	if s.annotations.Annotation(id) == nil {
		return false, nil
	}
	if !confirmer.Confirm(ctx, ConfirmDeleteNote) {
		return false, nil
	}
	if err := s.annotations.DeletePin(ctx, id); err != nil {
		return false, s.fail(ctx, err)
	}
	return true, nil
}

// Focus прокручивает страницу к метке.
func (s *Session) Focus(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ann := s.annotations.Annotation(id); ann != nil {
		s.view.Focus(ctx, *ann)
	}
}

// PanelDown начинает перетаскивание панели за заголовок.
func (s *Session) PanelDown(ctx context.Context, ev drag.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.drag.PanelDown(ev, s.panel)
}

// PinDown начинает жест на метке id. Неизвестная метка игнорируется.
func (s *Session) PinDown(ctx context.Context, ev drag.PointerEvent, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	ann := s.annotations.Annotation(id)
	if ann == nil {
		logger.Log(ctx).Debug(ctx, "pointer down on unknown pin", zap.String("annotation_id", id))
		return
	}
	s.drag.PinDown(ev, id, drag.Point{X: ann.Position.X, Y: ann.Position.Y})
}

// PointerMove передает перемещение указателя контроллеру жестов.
func (s *Session) PointerMove(ctx context.Context, ev drag.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Move(ctx, ev)
}

// PointerUp завершает текущий жест.
func (s *Session) PointerUp(ctx context.Context, ev drag.PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preview = nil
	if err := s.drag.Up(ctx, ev); err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// Record возвращает копию текущей записи или nil.
func (s *Session) Record() *entities.PageRecord {
	return s.annotations.Record()
}

// Export пишет текущую запись в w.
func (s *Session) Export(w io.Writer) error {
	return s.annotations.Export(w)
}

// Snapshot возвращает состояние панели.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Active:      s.active,
		Visible:     s.visible,
		Minimized:   s.minimized,
		PanelHidden: s.panelHidden,
		Placing:     s.placement.Armed(),
		Color:       s.color,
		Panel:       s.panel,
		Cursor:      s.cursor,
		Status:      s.status,
	}
	if s.preview != nil {
		cp := *s.preview
		snap.Preview = &cp
	}
	return snap
}

// load вызывается под mu.
func (s *Session) load(ctx context.Context) error {
	s.setStatus(ctx, StatusLoading)
	if _, err := s.annotations.LoadOrCreate(ctx, s.page); err != nil {
		return s.fail(ctx, err)
	}
	s.setStatus(ctx, StatusReady)
	return nil
}

// setStatus вызывается под mu.
func (s *Session) setStatus(ctx context.Context, message string) {
	s.status = message
	s.view.SetStatus(ctx, message)
}

// fail вызывается под mu: показывает ошибку в строке статуса и возвращает ее.
func (s *Session) fail(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrNotActive):
		s.setStatus(ctx, StatusNotActive)
	case errors.Is(err, ErrInvalidColor):
		s.setStatus(ctx, StatusUnknownColor)
	default:
		logger.Log(ctx).Error(ctx, StatusStorageError, zap.String("page", s.page.Identity()), zap.Error(err))
		s.setStatus(ctx, StatusStorageError)
	}
	return err
}

// dragHandler получает события контроллера жестов. Вызывается под Session.mu.
type dragHandler struct{ s *Session }

func (h dragHandler) PanelMoved(_ context.Context, pos drag.Point) {
	h.s.panel = pos
}

func (h dragHandler) PinPreview(_ context.Context, id string, pos drag.Point) {
	h.s.preview = &PinPreview{ID: id, Position: entities.Position{X: pos.X, Y: pos.Y}}
}

func (h dragHandler) PinActivated(ctx context.Context, id string) error {
	ann := h.s.annotations.Annotation(id)
	if ann == nil {
		return nil
	}
	h.s.visible = true
	h.s.minimized = false
	h.s.view.ShowNote(ctx, *ann)
	return nil
}

func (h dragHandler) PinCommitted(ctx context.Context, id string, pos drag.Point) error {
	return h.s.annotations.MovePin(ctx, id, entities.Position{X: pos.X, Y: pos.Y})
}

func (h dragHandler) CursorChanged(_ context.Context, cursor string) {
	h.s.cursor = cursor
}

// surface скрывает и восстанавливает панель для режима размещения. Вызывается под Session.mu.
type surface struct{ s *Session }

func (p surface) HidePanel(context.Context)    { p.s.panelHidden = true }
func (p surface) RestorePanel(context.Context) { p.s.panelHidden = false }

func (p surface) SetCursor(_ context.Context, cursor string) {
	p.s.cursor = cursor
}
