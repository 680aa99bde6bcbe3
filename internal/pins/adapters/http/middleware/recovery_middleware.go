package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"pinboard/internal/pins/app/dto"
	"pinboard/pkg/logger"
)

// Константы ответа при панике.
const (
	LogPanic          = "panic while handling request"
	MsgInternalError  = "Internal Server Error"
	ErrSendAfterPanic = "failed to send error response after panic"
)

// NewRecoveryMiddleware превращает панику обработчика в ответ 500.
func NewRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestCtx := c.Context()
			logger.Log(requestCtx).Error(requestCtx, LogPanic,
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))

			if sendErr := c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: MsgInternalError}); sendErr != nil {
				err = fmt.Errorf("%s: %w", ErrSendAfterPanic, sendErr)
			}
		}()

		return c.Next()
	}
}
