package serverutils

import (
	"strconv"

	"idea-clustering-be/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts domain errors bubbling out of handlers
// into the JSON envelope. Rate limit errors carry a Retry-After header.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr, ok := apperrors.As(err); ok {
			switch appErr.Kind {
			case apperrors.KindValidation:
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, appErr.Message))
			case apperrors.KindRateLimit:
				if appErr.RetryAfter > 0 {
					ctx.Set("Retry-After", strconv.Itoa(int(appErr.RetryAfter.Seconds())))
				}
				return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(429, appErr.Message))
			case apperrors.KindNotFound:
				return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(404, appErr.Message))
			case apperrors.KindEmbeddingService:
				return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(502, "embedding backend unavailable"))
			}
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "internal server error"))
	}
}
