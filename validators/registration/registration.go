package registrationValidator

import (
	"ninma/validators"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Notes               string `json:"notes" validate:"max=500"`
	DietaryRestrictions string `json:"dietaryRestrictions" validate:"max=200"`
}

type ListRegistrationsQuery struct {
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status string `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED ATTENDED ABSENT WAITLIST CANCELLED"`
	Search string `query:"search" validate:"max=200"`
}

// Register accepts an empty body.
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegisterRequest)
		if len(c.Body()) > 0 {
			if ok, err := validators.ParseBody(c, reqData); !ok {
				return err
			}
		}
		c.Locals("validatedRegistration", reqData)
		return c.Next()
	}
}

func ListRegistrations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListRegistrationsQuery)
		if ok, err := validators.ParseQuery(c, reqData); !ok {
			return err
		}
		c.Locals("validatedRegistrationList", reqData)
		return c.Next()
	}
}
