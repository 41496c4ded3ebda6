package middleware

import (
	"ninma/policy"

	"github.com/gofiber/fiber/v2"
)

// Authorize returns a middleware that checks the caller's role against the
// policy table. It must run after JWTMiddleware.
func Authorize(resource policy.Resource, action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, role := CurrentUser(c)
		if userID == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Não autorizado: usuário não identificado", nil)
		}
		if !policy.Can(role, resource, action) {
			return JsonResponse(c, fiber.StatusForbidden, false, "Sem permissão para acessar este recurso!", nil)
		}
		return c.Next()
	}
}
