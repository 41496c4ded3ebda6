package models

import (
	"time"
)

const DefaultCertificateRole = "Participante"

// Certificate is the verifiable proof of participation for a registration
type Certificate struct {
	Base
	RegistrationID   string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"registrationId"`
	EventID          string     `gorm:"type:varchar(36);index;not null" json:"eventId"`
	UserID           string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	VerificationCode string     `gorm:"uniqueIndex;not null" json:"verificationCode"`
	Workload         int        `gorm:"default:0" json:"workload"`
	Role             string     `gorm:"default:'Participante'" json:"role"`
	IssuedAt         time.Time  `gorm:"index" json:"issuedAt"`
	ValidUntil       *time.Time `json:"validUntil"`
	PdfURL           string     `json:"pdfUrl"`

	Event        *Event        `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Registration *Registration `gorm:"foreignKey:RegistrationID" json:"registration,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// IsExpired reports whether the certificate is past its validity window.
// A nil ValidUntil never expires.
func (c Certificate) IsExpired(at time.Time) bool {
	return c.ValidUntil != nil && at.After(*c.ValidUntil)
}
