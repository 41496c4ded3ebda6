package attendanceValidator

import (
	"ninma/middleware"
	"ninma/services"
	"ninma/validators"

	"github.com/gofiber/fiber/v2"
)

type CheckinRequest struct {
	RegistrationID string `json:"registrationId" validate:"required"`
	Method         string `json:"method" validate:"omitempty,oneof=QR_CODE MANUAL AUTOMATIC"`
	Location       string `json:"location" validate:"max=300"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type CheckoutRequest struct {
	RegistrationID string `json:"registrationId" validate:"required"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type ManualCheckinRequest struct {
	EventID         string   `json:"eventId" validate:"required"`
	RegistrationIDs []string `json:"registrationIds" validate:"required,min=1,max=500,dive,required"`
	Location        string   `json:"location" validate:"max=300"`
	Notes           string   `json:"notes" validate:"max=2000"`
}

// QRCodeRequest serves both actions: generate needs registrationId and
// eventId, checkin needs qrData.
type QRCodeRequest struct {
	Action         string `json:"action" validate:"required,oneof=generate checkin"`
	RegistrationID string `json:"registrationId" validate:"required_if=Action generate"`
	EventID        string `json:"eventId" validate:"required_if=Action generate"`
	QRData         string `json:"qrData" validate:"required_if=Action checkin"`
	Location       string `json:"location" validate:"max=300"`
}

type ListAttendancesQuery struct {
	Method    string `query:"method" validate:"omitempty,oneof=QR_CODE MANUAL AUTOMATIC"`
	Search    string `query:"search" validate:"max=200"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`

	Filters services.AttendanceFilters `query:"-"`
}

func Checkin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CheckinRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedCheckin", reqData)
		return c.Next()
	}
}

func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CheckoutRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedCheckout", reqData)
		return c.Next()
	}
}

func ManualCheckin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ManualCheckinRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedManualCheckin", reqData)
		return c.Next()
	}
}

func QRCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QRCodeRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedQRCode", reqData)
		return c.Next()
	}
}

func ListAttendances() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListAttendancesQuery)
		if ok, err := validators.ParseQuery(c, reqData); !ok {
			return err
		}

		errs := make(map[string]string)
		start, err := validators.ParseDate(reqData.StartDate)
		if err != nil {
			errs["startDate"] = "Data inválida!"
		}
		end, err := validators.ParseDate(reqData.EndDate)
		if err != nil {
			errs["endDate"] = "Data inválida!"
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}

		reqData.Filters = services.AttendanceFilters{
			Method:    reqData.Method,
			Search:    reqData.Search,
			StartDate: start,
			EndDate:   end,
		}
		c.Locals("validatedAttendanceList", reqData)
		return c.Next()
	}
}
