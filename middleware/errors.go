package middleware

import (
	"errors"
	"log"

	"ninma/services"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:   fiber.StatusNotFound,
	services.KindConflict:   fiber.StatusBadRequest,
	services.KindForbidden:  fiber.StatusForbidden,
	services.KindValidation: fiber.StatusBadRequest,
}

// ServiceErrorResponse maps a service error to its HTTP status. Anything
// unexpected is logged and answered with a generic 500.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus[svcErr.Kind]; ok {
			return JsonResponse(c, status, false, svcErr.Message, nil)
		}
	}
	log.Printf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Erro interno do servidor!", nil)
}
