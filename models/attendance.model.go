package models

import (
	"time"
)

// AttendanceMethod enum values
const (
	MethodQRCode    = "QR_CODE"
	MethodManual    = "MANUAL"
	MethodAutomatic = "AUTOMATIC"
)

// Attendance is the check-in record of a registration
type Attendance struct {
	Base
	RegistrationID string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"registrationId"`
	CheckinAt      time.Time  `gorm:"not null" json:"checkinAt"`
	CheckoutAt     *time.Time `json:"checkoutAt"`
	Method         string     `gorm:"type:varchar(20);not null;default:'MANUAL'" json:"method"`
	Location       string     `json:"location"`
	IPAddress      string     `json:"ipAddress"`
	UserAgent      string     `json:"userAgent"`
	Notes          string     `gorm:"type:text" json:"notes"`
	RecordedByID   *string    `gorm:"type:varchar(36)" json:"recordedById"`

	Registration *Registration `gorm:"foreignKey:RegistrationID" json:"registration,omitempty"`
}

func (Attendance) TableName() string {
	return "attendances"
}

func IsValidAttendanceMethod(method string) bool {
	switch method {
	case MethodQRCode, MethodManual, MethodAutomatic:
		return true
	}
	return false
}
