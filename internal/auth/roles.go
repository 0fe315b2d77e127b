package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/access"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RequireAction short-circuits routes whose action depends on role alone.
// Services still run their own checks.
func RequireAction(gate *access.Gate, action access.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		allowed, err := gate.CanPerform(principal, action, nil)
		if err != nil {
			return apperrors.NewConfigurationError("permission check misconfigured",
				map[string]any{"action": string(action)}, err)
		}
		if !allowed {
			return apperrors.NewUnauthorized("not allowed to "+string(action),
				map[string]any{"action": string(action)})
		}
		return c.Next()
	}
}
