package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus enum values
const (
	SubmissionDraft       = "DRAFT"
	SubmissionSubmitted   = "SUBMITTED"
	SubmissionUnderReview = "UNDER_REVIEW"
	SubmissionApproved    = "APPROVED"
	SubmissionRejected    = "REJECTED"
	SubmissionRevision    = "REVISION"
)

// SubmissionAuthor is a denormalized co-author entry
type SubmissionAuthor struct {
	Name        string `json:"name" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Institution string `json:"institution,omitempty"`
}

// Submission is an academic paper sent to an event
type Submission struct {
	Base
	EventID     string                                `gorm:"type:varchar(36);not null;index" json:"eventId"`
	UserID      string                                `gorm:"type:varchar(36);not null;index" json:"userId"`
	Title       string                                `gorm:"not null" json:"title"`
	Abstract    string                                `gorm:"type:text" json:"abstract"`
	Keywords    datatypes.JSONSlice[string]           `json:"keywords"`
	Authors     datatypes.JSONSlice[SubmissionAuthor] `json:"authors"`
	FileURL     string                                `json:"fileUrl"`
	FileName    string                                `json:"fileName"`
	FileSize    int64                                 `json:"fileSize"`
	MimeType    string                                `json:"mimeType"`
	Status      string                                `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	SubmittedAt time.Time                             `json:"submittedAt"`
	ReviewRound int                                   `gorm:"not null;default:1" json:"reviewRound"` // bumped on each resubmission after REVISION

	// Relations
	Event   *Event   `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Author  *User    `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Reviews []Review `gorm:"constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// IsEditable reports whether the author may still change the submission.
func (s Submission) IsEditable() bool {
	return s.Status == SubmissionDraft || s.Status == SubmissionRevision
}
