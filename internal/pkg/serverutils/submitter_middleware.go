package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SubmitterMiddleware resolves the submitter identity for ingestion.
// A valid bearer token yields a verified user id; otherwise the caller
// must present an anonymous session id header. Exactly one of the two is
// set in locals, never both.
func SubmitterMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
		}

		userIdStr, _ := claims["user_id"].(string)
		userId, err := uuid.Parse(userIdStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid user id claim"))
		}

		ctx.Locals("user_id", userId)
		return ctx.Next()
	}

	sessionHeader := ctx.Get("X-Session-Id")
	sessionId, err := uuid.Parse(sessionHeader)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token or session id"))
	}

	ctx.Locals("session_id", sessionId)
	return ctx.Next()
}
