// Package http содержит компоненты для HTTP сервера оверлея.
package http

import (
	"github.com/gofiber/fiber/v3"

	"pinboard/internal/pins/adapters/http/middleware"
	"pinboard/internal/pins/adapters/http/sessions"
)

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, registry *sessions.Registry) {
	handler := sessions.NewHandler(registry)

	// Middleware для всех запросов.
	app.Use(middleware.NewRecoveryMiddleware())
	app.Use(middleware.NewLoggerMiddleware(sessions.ContextLocalKey))

	// API версии 1.
	apiV1 := app.Group("/api/v1")

	session := apiV1.Group("/sessions/:session_id")
	session.Post("/", handler.Toggle)
	session.Get("/record", handler.Record)
	session.Get("/export", handler.Export)
	session.Post("/color", handler.SetColor)
	session.Post("/minimize", handler.ToggleMinimize)

	session.Post("/placement", handler.EnterPlacement)
	session.Post("/placement/click", handler.PlacementClick)
	session.Post("/placement/escape", handler.PlacementEscape)

	session.Patch("/pins/:pin_id", handler.EditNote)
	session.Delete("/pins/:pin_id", handler.DeletePin)
	session.Post("/pins/:pin_id/focus", handler.Focus)

	session.Post("/pointer/panel-down", handler.PanelDown)
	session.Post("/pointer/pin-down", handler.PinDown)
	session.Post("/pointer/move", handler.PointerMove)
	session.Post("/pointer/up", handler.PointerUp)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
