// Package sessions содержит HTTP-обработчики, через которые клиент оверлея управляет сессией страницы.
package sessions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"pinboard/internal/pins/app"
	"pinboard/internal/pins/app/dto"
	"pinboard/internal/pins/domain/entities"
	"pinboard/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgInvalidPage        = "invalid page url"
	ErrMsgSessionNotFound    = "session not found"
	ErrMsgMissingPinID       = "pin id is required"

	LogHandlerFailed = "session request failed"
)

// ContextLocalKey - ключ Locals, под которым middleware кладет контекст запроса.
const ContextLocalKey = "requestContext"

// Handler обрабатывает HTTP-запросы к сессиям.
type Handler struct {
	registry *Registry
}

// NewHandler создает новый экземпляр обработчика сессий.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(ContextLocalKey).(context.Context); ok {
		return ctx
	}
	return c.Context()
}

// Toggle включает сессию или переключает видимость панели.
func (h *Handler) Toggle(c fiber.Ctx) error {
	ctx := requestContext(c)
	id := c.Params("session_id")

	var req dto.ToggleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, ErrMsgInvalidRequestBody)
	}
	page, err := entities.Page{Origin: req.Origin, URL: req.URL, Body: req.Body}.Normalize()
	if err != nil {
		return badRequest(c, ErrMsgInvalidPage)
	}

	e := h.registry.acquire(ctx, id, page)
	if err := e.session.Toggle(ctx); err != nil {
		return failure(ctx, c, e, err)
	}
	return respond(c, id, e, dto.SessionResponse{})
}

// Record возвращает текущую запись страницы.
func (h *Handler) Record(c fiber.Ctx) error {
	return h.with(c, func(_ context.Context, e *entry, _ *dto.SessionResponse) error {
		return nil
	})
}

// Export отдает текущую запись как файл.
func (h *Handler) Export(c fiber.Ctx) error {
	ctx := requestContext(c)
	e, err := h.registry.get(c.Params("session_id"))
	if err != nil {
		return notFound(c)
	}

	var buf bytes.Buffer
	if err := e.session.Export(&buf); err != nil {
		return failure(ctx, c, e, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, app.ExportFileName))
	if err := c.Send(buf.Bytes()); err != nil {
		return fmt.Errorf("error sending export: %w", err)
	}
	return nil
}

// SetColor выбирает цвет новых меток.
func (h *Handler) SetColor(c fiber.Ctx) error {
	var req dto.ColorRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, ErrMsgInvalidRequestBody)
	}
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		return e.session.SetColor(ctx, req.Color)
	})
}

// ToggleMinimize сворачивает или разворачивает панель.
func (h *Handler) ToggleMinimize(c fiber.Ctx) error {
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		e.session.ToggleMinimize(ctx)
		return nil
	})
}

// EnterPlacement включает режим размещения метки.
func (h *Handler) EnterPlacement(c fiber.Ctx) error {
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		return e.session.EnterPlacement(ctx)
	})
}

// PlacementClick передает щелчок и ответ на запрос заметки.
func (h *Handler) PlacementClick(c fiber.Ctx) error {
	var req dto.PlacementClickRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, ErrMsgInvalidRequestBody)
	}
	return h.with(c, func(ctx context.Context, e *entry, resp *dto.SessionResponse) error {
		consumed, pin, err := e.session.PlacementClick(ctx, entities.Position{X: req.X, Y: req.Y}, answer{note: req.Note})
		resp.Consumed = &consumed
		resp.Pin = pin
		return err
	})
}

// PlacementEscape отменяет режим размещения.
func (h *Handler) PlacementEscape(c fiber.Ctx) error {
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		e.session.PlacementEscape(ctx)
		return nil
	})
}

// EditNote меняет текст заметки.
func (h *Handler) EditNote(c fiber.Ctx) error {
	pinID := c.Params("pin_id")
	var req dto.EditNoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, ErrMsgInvalidRequestBody)
	}
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		return e.session.EditNote(ctx, pinID, answer{note: req.Note})
	})
}

// DeletePin удаляет метку, если запрос подтвержден параметром confirm=true.
func (h *Handler) DeletePin(c fiber.Ctx) error {
	pinID := c.Params("pin_id")
	// Отсутствующий или некорректный параметр означает отказ.
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	return h.with(c, func(ctx context.Context, e *entry, resp *dto.SessionResponse) error {
		deleted, err := e.session.DeletePin(ctx, pinID, confirmation(confirmed))
		resp.Deleted = &deleted
		return err
	})
}

// Focus прокручивает страницу к метке.
func (h *Handler) Focus(c fiber.Ctx) error {
	pinID := c.Params("pin_id")
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		e.session.Focus(ctx, pinID)
		return nil
	})
}

// PanelDown начинает перетаскивание панели.
func (h *Handler) PanelDown(c fiber.Ctx) error {
	return h.pointer(c, func(ctx context.Context, e *entry, req dto.PointerRequest) error {
		e.session.PanelDown(ctx, req.PointerEvent)
		return nil
	})
}

// PinDown начинает жест на метке.
func (h *Handler) PinDown(c fiber.Ctx) error {
	return h.pointer(c, func(ctx context.Context, e *entry, req dto.PointerRequest) error {
		if req.PinID == "" {
			return errMissingPinID
		}
		e.session.PinDown(ctx, req.PointerEvent, req.PinID)
		return nil
	})
}

// PointerMove передает перемещение указателя.
func (h *Handler) PointerMove(c fiber.Ctx) error {
	return h.pointer(c, func(ctx context.Context, e *entry, req dto.PointerRequest) error {
		e.session.PointerMove(ctx, req.PointerEvent)
		return nil
	})
}

// PointerUp завершает жест.
func (h *Handler) PointerUp(c fiber.Ctx) error {
	return h.pointer(c, func(ctx context.Context, e *entry, req dto.PointerRequest) error {
		return e.session.PointerUp(ctx, req.PointerEvent)
	})
}

var errMissingPinID = errors.New(ErrMsgMissingPinID)

func (h *Handler) pointer(c fiber.Ctx, fn func(context.Context, *entry, dto.PointerRequest) error) error {
	var req dto.PointerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, ErrMsgInvalidRequestBody)
	}
	return h.with(c, func(ctx context.Context, e *entry, _ *dto.SessionResponse) error {
		return fn(ctx, e, req)
	})
}

// with находит сессию, выполняет fn и отправляет состояние сессии.
func (h *Handler) with(c fiber.Ctx, fn func(context.Context, *entry, *dto.SessionResponse) error) error {
	ctx := requestContext(c)
	id := c.Params("session_id")

	e, err := h.registry.get(id)
	if err != nil {
		return notFound(c)
	}

	var resp dto.SessionResponse
	if err := fn(ctx, e, &resp); err != nil {
		if errors.Is(err, errMissingPinID) {
			return badRequest(c, ErrMsgMissingPinID)
		}
		return failure(ctx, c, e, err)
	}
	return respond(c, id, e, resp)
}

func respond(c fiber.Ctx, id string, e *entry, resp dto.SessionResponse) error {
	resp.SessionID = id
	resp.State = e.session.Snapshot()
	resp.Record = e.session.Record()
	resp.ShownNote, resp.Focused = e.view.drain()

	if err := c.Status(fiber.StatusOK).JSON(resp); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

func failure(ctx context.Context, c fiber.Ctx, e *entry, err error) error {
	logger.Log(ctx).Warn(ctx, LogHandlerFailed, zap.Error(err))

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidColor):
		status = fiber.StatusBadRequest
	case errors.Is(err, app.ErrNotActive):
		status = fiber.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = fiber.StatusRequestTimeout
	}

	snap := e.session.Snapshot()
	if sendErr := c.Status(status).JSON(dto.ErrorResponse{Error: err.Error(), State: &snap}); sendErr != nil {
		return fmt.Errorf("failed to send error response: %w", sendErr)
	}
	return nil
}

func badRequest(c fiber.Ctx, msg string) error {
	if err := c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg}); err != nil {
		return fmt.Errorf("failed to send bad request response: %w", err)
	}
	return nil
}

func notFound(c fiber.Ctx) error {
	if err := c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: ErrMsgSessionNotFound}); err != nil {
		return fmt.Errorf("failed to send not found response: %w", err)
	}
	return nil
}
