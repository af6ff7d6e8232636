package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-procedure-assistant-be/pkg/rag"
)

// ErrorHandlerMiddleware converts errors escaping the handlers into
// the standard envelope with a status matching the domain error.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, rag.ErrSessionNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, rag.ErrGenerationTimeout):
			status = fiber.StatusGatewayTimeout
		case errors.Is(err, rag.ErrEmbeddingFailure):
			status = fiber.StatusBadGateway
		case errors.Is(err, rag.ErrIndexUnavailable):
			status = fiber.StatusServiceUnavailable
		default:
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		return ctx.Status(status).JSON(ErrorResponse(err.Error()))
	}
}
