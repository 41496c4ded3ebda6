package submissionValidator

import (
	"strings"

	"ninma/models"
	"ninma/services"
	"ninma/validators"

	"github.com/gofiber/fiber/v2"
)

type CreateSubmissionRequest struct {
	EventID  string                    `json:"eventId" validate:"required"`
	Title    string                    `json:"title" validate:"required,min=10,max=300"`
	Abstract string                    `json:"abstract" validate:"required,min=50,max=5000"`
	Keywords []string                  `json:"keywords" validate:"required,min=3,max=10,dive,min=1,max=50"`
	Authors  []models.SubmissionAuthor `json:"authors" validate:"required,min=1,max=20,dive"`
	FileURL  string                    `json:"fileUrl" validate:"max=500"`
	FileName string                    `json:"fileName" validate:"max=300"`
	FileSize int64                     `json:"fileSize" validate:"min=0"`
	MimeType string                    `json:"mimeType" validate:"max=200"`
	Status   string                    `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`
}

func (r *CreateSubmissionRequest) Input(userID string) services.SubmissionInput {
	return services.SubmissionInput{
		EventID:  r.EventID,
		UserID:   userID,
		Title:    strings.TrimSpace(r.Title),
		Abstract: r.Abstract,
		Keywords: r.Keywords,
		Authors:  r.Authors,
		FileURL:  r.FileURL,
		FileName: r.FileName,
		FileSize: r.FileSize,
		MimeType: r.MimeType,
		Status:   r.Status,
	}
}

type UpdateSubmissionRequest struct {
	Title    *string                   `json:"title" validate:"omitempty,min=10,max=300"`
	Abstract *string                   `json:"abstract" validate:"omitempty,min=50,max=5000"`
	Keywords []string                  `json:"keywords" validate:"omitempty,min=3,max=10,dive,min=1,max=50"`
	Authors  []models.SubmissionAuthor `json:"authors" validate:"omitempty,min=1,max=20,dive"`
	FileURL  *string                   `json:"fileUrl" validate:"omitempty,max=500"`
	FileName *string                   `json:"fileName" validate:"omitempty,max=300"`
	FileSize *int64                    `json:"fileSize" validate:"omitempty,min=0"`
	MimeType *string                   `json:"mimeType" validate:"omitempty,max=200"`
	Status   *string                   `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED"`
}

func (r *UpdateSubmissionRequest) Update() services.SubmissionUpdate {
	return services.SubmissionUpdate{
		Title:    r.Title,
		Abstract: r.Abstract,
		Keywords: r.Keywords,
		Authors:  r.Authors,
		FileURL:  r.FileURL,
		FileName: r.FileName,
		FileSize: r.FileSize,
		MimeType: r.MimeType,
		Status:   r.Status,
	}
}

type ReviewRequest struct {
	Status      string `json:"status" validate:"required,oneof=APPROVED REJECTED REVISION"`
	Rating      *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Originality *int   `json:"originality" validate:"omitempty,min=1,max=5"`
	Relevance   *int   `json:"relevance" validate:"omitempty,min=1,max=5"`
	Methodology *int   `json:"methodology" validate:"omitempty,min=1,max=5"`
	Clarity     *int   `json:"clarity" validate:"omitempty,min=1,max=5"`
	Comments    string `json:"comments" validate:"required,min=20,max=10000"`
}

type ListSubmissionsQuery struct {
	Page    int    `query:"page" validate:"omitempty,min=1"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
	EventID string `query:"eventId"`
	Status  string `query:"status" validate:"omitempty,oneof=DRAFT SUBMITTED UNDER_REVIEW APPROVED REJECTED REVISION"`
	Search  string `query:"search" validate:"max=200"`
}

type DeleteFileRequest struct {
	FileURL string `json:"fileUrl" validate:"required"`
}

func CreateSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateSubmissionRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}

func UpdateSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateSubmissionRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedSubmissionUpdate", reqData)
		return c.Next()
	}
}

func Review() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReviewRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

func ListSubmissions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListSubmissionsQuery)
		if ok, err := validators.ParseQuery(c, reqData); !ok {
			return err
		}
		c.Locals("validatedSubmissionList", reqData)
		return c.Next()
	}
}

func DeleteFile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(DeleteFileRequest)
		if ok, err := validators.ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals("validatedDeleteFile", reqData)
		return c.Next()
	}
}
