package models

import "time"

// ReviewStatus enum values
const (
	ReviewPending  = "PENDING"
	ReviewApproved = "APPROVED"
	ReviewRejected = "REJECTED"
	ReviewRevision = "REVISION"
)

type Review struct {
	Base
	SubmissionID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_submission_reviewer" json:"submissionId"`
	ReviewerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_submission_reviewer;index" json:"reviewerId"`
	Round        int       `gorm:"not null;default:1;uniqueIndex:idx_review_submission_reviewer" json:"round"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Rating       *int      `gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)" json:"rating"`
	Originality  *int      `json:"originality"`
	Relevance    *int      `json:"relevance"`
	Methodology  *int      `json:"methodology"`
	Clarity      *int      `json:"clarity"`
	Comments     string    `gorm:"type:text" json:"comments"`
	ReviewedAt   time.Time `json:"reviewedAt"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}
