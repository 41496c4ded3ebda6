package eventValidator

import (
	"strings"
	"time"

	"ninma/middleware"
	"ninma/services"
	"ninma/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,min=5,max=200"`
	Description          string     `json:"description" validate:"max=20000"`
	ShortDesc            string     `json:"shortDesc" validate:"max=500"`
	Type                 string     `json:"type" validate:"omitempty,oneof=CONFERENCE WORKSHOP SEMINAR COURSE WEBINAR SYMPOSIUM CONGRESS OTHER"`
	Status               string     `json:"status" validate:"omitempty,oneof=DRAFT OPEN CLOSED IN_PROGRESS COMPLETED CANCELLED"`
	StartDate            time.Time  `json:"startDate" validate:"required"`
	EndDate              time.Time  `json:"endDate" validate:"required,gtefield=StartDate"`
	Location             string     `json:"location" validate:"max=300"`
	Address              string     `json:"address" validate:"max=300"`
	City                 string     `json:"city" validate:"max=120"`
	State                string     `json:"state" validate:"max=60"`
	IsOnline             bool       `json:"isOnline"`
	MeetingURL           string     `json:"meetingUrl" validate:"omitempty,url"`
	Capacity             *int       `json:"capacity" validate:"omitempty,min=1"`
	AllowRegistrations   *bool      `json:"allowRegistrations"`
	RegistrationStart    *time.Time `json:"registrationStart"`
	RegistrationEnd      *time.Time `json:"registrationEnd"`
	RequiresApproval     bool       `json:"requiresApproval"`
	AllowSubmissions     bool       `json:"allowSubmissions"`
	SubmissionStart      *time.Time `json:"submissionStart"`
	SubmissionEnd        *time.Time `json:"submissionEnd"`
	SubmissionGuidelines string     `json:"submissionGuidelines" validate:"max=20000"`
	IssueCertificates    *bool      `json:"issueCertificates"`
	CertificateTemplate  string     `json:"certificateTemplate"`
	Workload             int        `json:"workload" validate:"min=0,max=10000"`
	Image                string     `json:"image" validate:"max=500"`
	Banner               string     `json:"banner" validate:"max=500"`
	Tags                 []string   `json:"tags" validate:"max=30,dive,min=1,max=50"`
	Keywords             []string   `json:"keywords" validate:"max=30,dive,min=1,max=50"`
}

// Input converts the request; registrations and certificates default to on.
func (r *CreateEventRequest) Input(createdByID string) services.EventInput {
	return services.EventInput{
		Title:                strings.TrimSpace(r.Title),
		Description:          r.Description,
		ShortDesc:            r.ShortDesc,
		Type:                 r.Type,
		Status:               r.Status,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		Location:             r.Location,
		Address:              r.Address,
		City:                 r.City,
		State:                r.State,
		IsOnline:             r.IsOnline,
		MeetingURL:           r.MeetingURL,
		Capacity:             r.Capacity,
		AllowRegistrations:   r.AllowRegistrations == nil || *r.AllowRegistrations,
		RegistrationStart:    r.RegistrationStart,
		RegistrationEnd:      r.RegistrationEnd,
		RequiresApproval:     r.RequiresApproval,
		AllowSubmissions:     r.AllowSubmissions,
		SubmissionStart:      r.SubmissionStart,
		SubmissionEnd:        r.SubmissionEnd,
		SubmissionGuidelines: r.SubmissionGuidelines,
		IssueCertificates:    r.IssueCertificates == nil || *r.IssueCertificates,
		CertificateTemplate:  r.CertificateTemplate,
		Workload:             r.Workload,
		Image:                r.Image,
		Banner:               r.Banner,
		Tags:                 r.Tags,
		Keywords:             r.Keywords,
		CreatedByID:          createdByID,
	}
}

type UpdateEventRequest struct {
	Title                *string    `json:"title" validate:"omitempty,min=5,max=200"`
	Description          *string    `json:"description" validate:"omitempty,max=20000"`
	ShortDesc            *string    `json:"shortDesc" validate:"omitempty,max=500"`
	Type                 *string    `json:"type" validate:"omitempty,oneof=CONFERENCE WORKSHOP SEMINAR COURSE WEBINAR SYMPOSIUM CONGRESS OTHER"`
	Status               *string    `json:"status" validate:"omitempty,oneof=DRAFT OPEN CLOSED IN_PROGRESS COMPLETED CANCELLED"`
	StartDate            *time.Time `json:"startDate"`
	EndDate              *time.Time `json:"endDate"`
	Location             *string    `json:"location" validate:"omitempty,max=300"`
	Address              *string    `json:"address" validate:"omitempty,max=300"`
	City                 *string    `json:"city" validate:"omitempty,max=120"`
	State                *string    `json:"state" validate:"omitempty,max=60"`
	IsOnline             *bool      `json:"isOnline"`
	MeetingURL           *string    `json:"meetingUrl" validate:"omitempty,url"`
	Capacity             *int       `json:"capacity" validate:"omitempty,min=1"`
	AllowRegistrations   *bool      `json:"allowRegistrations"`
	RegistrationStart    *time.Time `json:"registrationStart"`
	RegistrationEnd      *time.Time `json:"registrationEnd"`
	RequiresApproval     *bool      `json:"requiresApproval"`
	AllowSubmissions     *bool      `json:"allowSubmissions"`
	SubmissionStart      *time.Time `json:"submissionStart"`
	SubmissionEnd        *time.Time `json:"submissionEnd"`
	SubmissionGuidelines *string    `json:"submissionGuidelines" validate:"omitempty,max=20000"`
	IssueCertificates    *bool      `json:"issueCertificates"`
	CertificateTemplate  *string    `json:"certificateTemplate"`
	Workload             *int       `json:"workload" validate:"omitempty,min=0,max=10000"`
	Image                *string    `json:"image" validate:"omitempty,max=500"`
	Banner               *string    `json:"banner" validate:"omitempty,max=500"`
	Tags                 []string   `json:"tags" validate:"omitempty,max=30,dive,min=1,max=50"`
	Keywords             []string   `json:"keywords" validate:"omitempty,max=30,dive,min=1,max=50"`
	Clear                []string   `json:"clear" validate:"omitempty,max=5,dive,oneof=capacity registrationStart registrationEnd submissionStart submissionEnd"`
}

func (r *UpdateEventRequest) Update() services.EventUpdate {
	return services.EventUpdate{
		Title:                r.Title,
		Description:          r.Description,
		ShortDesc:            r.ShortDesc,
		Type:                 r.Type,
		Status:               r.Status,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		Location:             r.Location,
		Address:              r.Address,
		City:                 r.City,
		State:                r.State,
		IsOnline:             r.IsOnline,
		MeetingURL:           r.MeetingURL,
		Capacity:             r.Capacity,
		AllowRegistrations:   r.AllowRegistrations,
		RegistrationStart:    r.RegistrationStart,
		RegistrationEnd:      r.RegistrationEnd,
		RequiresApproval:     r.RequiresApproval,
		AllowSubmissions:     r.AllowSubmissions,
		SubmissionStart:      r.SubmissionStart,
		SubmissionEnd:        r.SubmissionEnd,
		SubmissionGuidelines: r.SubmissionGuidelines,
		IssueCertificates:    r.IssueCertificates,
		CertificateTemplate:  r.CertificateTemplate,
		Workload:             r.Workload,
		Image:                r.Image,
		Banner:               r.Banner,
		Tags:                 r.Tags,
		Keywords:             r.Keywords,
		Clear:                r.Clear,
	}
}

type ListEventsQuery struct {
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status    string `query:"status" validate:"omitempty,oneof=DRAFT OPEN CLOSED IN_PROGRESS COMPLETED CANCELLED"`
	Type      string `query:"type" validate:"omitempty,oneof=CONFERENCE WORKSHOP SEMINAR COURSE WEBINAR SYMPOSIUM CONGRESS OTHER"`
	Search    string `query:"search" validate:"max=200"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
	IsOnline  *bool  `query:"isOnline"`
	Tags      string `query:"tags"`
	OrderBy   string `query:"orderBy" validate:"omitempty,oneof=startDate -startDate endDate -endDate createdAt -createdAt title -title"`

	Filters services.EventFilters `query:"-"`
}

func CreateEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateEventRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		if errs := windowErrors(reqData.RegistrationStart, reqData.RegistrationEnd, reqData.SubmissionStart, reqData.SubmissionEnd); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedEvent", reqData)
		return c.Next()
	}
}

func UpdateEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateEventRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		errs := windowErrors(reqData.RegistrationStart, reqData.RegistrationEnd, reqData.SubmissionStart, reqData.SubmissionEnd)
		if reqData.StartDate != nil && reqData.EndDate != nil && reqData.EndDate.Before(*reqData.StartDate) {
			errs["endDate"] = "Data de término deve ser posterior à data de início!"
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedEventUpdate", reqData)
		return c.Next()
	}
}

func ListEvents() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListEventsQuery)
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

		reqData.Filters = services.EventFilters{
			Status:    reqData.Status,
			Type:      reqData.Type,
			Search:    reqData.Search,
			StartDate: start,
			EndDate:   end,
			IsOnline:  reqData.IsOnline,
			Tags:      splitList(reqData.Tags),
		}
		c.Locals("validatedEventList", reqData)
		return c.Next()
	}
}

func windowErrors(regStart, regEnd, subStart, subEnd *time.Time) map[string]string {
	errs := make(map[string]string)
	if regStart != nil && regEnd != nil && regEnd.Before(*regStart) {
		errs["registrationEnd"] = "O fim das inscrições deve ser posterior ao início!"
	}
	if subStart != nil && subEnd != nil && subEnd.Before(*subStart) {
		errs["submissionEnd"] = "O fim das submissões deve ser posterior ao início!"
	}
	return errs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

