package certificateValidator

import (
	"ninma/middleware"
	"ninma/models"
	"ninma/services"
	"ninma/validators"

	"github.com/gofiber/fiber/v2"
)

// GenerateCertificatesRequest issues one certificate when registrationId is
// set, otherwise one per attended registration of the event.
type GenerateCertificatesRequest struct {
	EventID        string `json:"eventId" validate:"required_without=RegistrationID"`
	RegistrationID string `json:"registrationId"`
	Role           string `json:"role" validate:"max=60"`
	Workload       *int   `json:"workload" validate:"omitempty,min=1,max=10000"`
}

type ListCertificatesQuery struct {
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	EventID   string `query:"eventId"`
	Role      string `query:"role" validate:"max=60"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`

	Filters services.CertificateFilters `query:"-"`
}

func GenerateCertificates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(GenerateCertificatesRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		if reqData.Role == "" {
			reqData.Role = models.DefaultCertificateRole
		}
		c.Locals("validatedCertificateGenerate", reqData)
		return c.Next()
	}
}

func ListCertificates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListCertificatesQuery)
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

		reqData.Filters = services.CertificateFilters{
			EventID:   reqData.EventID,
			Role:      reqData.Role,
			StartDate: start,
			EndDate:   end,
		}
		c.Locals("validatedCertificateList", reqData)
		return c.Next()
	}
}
