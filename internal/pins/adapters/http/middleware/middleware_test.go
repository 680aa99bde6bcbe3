package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinboard/internal/pins/adapters/http/middleware"
	"pinboard/internal/pins/app/dto"
	"pinboard/pkg/logger"
)

const localKey = "requestContext"

func TestRecoveryMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.NewRecoveryMiddleware())
	app.Get("/boom", func(fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, middleware.MsgInternalError, body.Error)
}

func TestLoggerMiddleware_RequestID(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.NewLoggerMiddleware(localKey))
	app.Get("/id", func(c fiber.Ctx) error {
		ctx, ok := c.Locals(localKey).(context.Context)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		id, _ := logger.GetRequestID(ctx)
		return c.SendString(id)
	})

	t.Run("propagates header", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/id", nil)
		req.Header.Set(middleware.HeaderRequestID, "req-42")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "req-42", string(body))
		assert.Equal(t, "req-42", resp.Header.Get(middleware.HeaderRequestID))
	})

	t.Run("generates when missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/id", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, body)
		assert.Equal(t, string(body), resp.Header.Get(middleware.HeaderRequestID))
	})
}

func TestLoggerMiddleware_PropagatesError(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.NewLoggerMiddleware(localKey))
	app.Get("/teapot", func(fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}
