package models

import (
	"time"
)

// RegistrationStatus enum values
const (
	RegistrationPending   = "PENDING"
	RegistrationConfirmed = "CONFIRMED"
	RegistrationAttended  = "ATTENDED"
	RegistrationAbsent    = "ABSENT"
	RegistrationWaitlist  = "WAITLIST"
	RegistrationCancelled = "CANCELLED"
)

// Registration links one user to one event
type Registration struct {
	Base
	EventID             string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_registration_event_user" json:"eventId"`
	UserID              string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_registration_event_user;index" json:"userId"`
	Status              string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes               string     `gorm:"type:text" json:"notes"`
	DietaryRestrictions string     `json:"dietaryRestrictions"`
	Confirmed           bool       `gorm:"default:false" json:"confirmed"`
	ConfirmedAt         *time.Time `json:"confirmedAt"`
	RegisteredAt        time.Time  `json:"registeredAt"`
	CancelledAt         *time.Time `json:"cancelledAt"`

	// Relations
	Event       *Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Attendance  *Attendance  `gorm:"constraint:OnDelete:CASCADE" json:"attendance,omitempty"`
	Certificate *Certificate `gorm:"constraint:OnDelete:CASCADE" json:"certificate,omitempty"`
}

func (Registration) TableName() string {
	return "registrations"
}

// IsActive reports whether the registration occupies a seat.
func (r Registration) IsActive() bool {
	return r.Status != RegistrationCancelled
}
