package models

import (
	"time"

	"gorm.io/datatypes"
)

// EventStatus enum values
const (
	EventDraft      = "DRAFT"
	EventOpen       = "OPEN"
	EventClosed     = "CLOSED"
	EventInProgress = "IN_PROGRESS"
	EventCompleted  = "COMPLETED"
	EventCancelled  = "CANCELLED"
)

// EventType enum values
const (
	EventTypeConference = "CONFERENCE"
	EventTypeWorkshop   = "WORKSHOP"
	EventTypeSeminar    = "SEMINAR"
	EventTypeCourse     = "COURSE"
	EventTypeWebinar    = "WEBINAR"
	EventTypeSymposium  = "SYMPOSIUM"
	EventTypeCongress   = "CONGRESS"
	EventTypeOther      = "OTHER"
)

type Event struct {
	Base
	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	ShortDesc   string `json:"shortDesc"`
	Type        string `gorm:"type:varchar(20);not null;default:'OTHER'" json:"type"`
	Status      string `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	StartDate time.Time `gorm:"index" json:"startDate"`
	EndDate   time.Time `json:"endDate"`

	Location   string `json:"location"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	IsOnline   bool   `gorm:"default:false" json:"isOnline"`
	MeetingURL string `json:"meetingUrl"`

	Capacity           *int       `json:"capacity"`
	AllowRegistrations bool       `gorm:"default:true" json:"allowRegistrations"`
	RegistrationStart  *time.Time `json:"registrationStart"`
	RegistrationEnd    *time.Time `json:"registrationEnd"`
	RequiresApproval   bool       `gorm:"default:false" json:"requiresApproval"`

	AllowSubmissions     bool       `gorm:"default:false" json:"allowSubmissions"`
	SubmissionStart      *time.Time `json:"submissionStart"`
	SubmissionEnd        *time.Time `json:"submissionEnd"`
	SubmissionGuidelines string     `gorm:"type:text" json:"submissionGuidelines"`

	IssueCertificates   bool   `gorm:"default:true" json:"issueCertificates"`
	CertificateTemplate string `json:"certificateTemplate"`
	Workload            int    `gorm:"default:0" json:"workload"` // hours

	Image    string                      `json:"image"`
	Banner   string                      `json:"banner"`
	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Keywords datatypes.JSONSlice[string] `json:"keywords"`

	PublishedAt *time.Time `json:"publishedAt"`
	CreatedByID string     `gorm:"type:varchar(36);index;not null" json:"createdById"`

	// Relations
	CreatedBy     *User          `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Registrations []Registration `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Submissions   []Submission   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Certificates  []Certificate  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Counts *EventCounts `gorm:"-" json:"counts,omitempty"`
}

// EventCounts is filled by queries that report relation sizes.
type EventCounts struct {
	Registrations int64 `json:"registrations"`
	Submissions   int64 `json:"submissions"`
	Certificates  int64 `json:"certificates"`
}

func (Event) TableName() string {
	return "events"
}

func IsValidEventStatus(status string) bool {
	switch status {
	case EventDraft, EventOpen, EventClosed, EventInProgress, EventCompleted, EventCancelled:
		return true
	}
	return false
}
