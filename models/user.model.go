package models

import (
	"time"
)

// UserRole enum values
const (
	RoleAdmin       = "ADMIN"
	RoleCoordinator = "COORDINATOR"
	RoleReviewer    = "REVIEWER"
	RoleParticipant = "PARTICIPANT"
)

var AllRoles = []string{RoleAdmin, RoleCoordinator, RoleReviewer, RoleParticipant}

type User struct {
	Base
	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        string     `gorm:"type:varchar(20);not null;default:'PARTICIPANT'" json:"role"`
	Image       string     `gorm:"default:''" json:"image"`
	Institution string     `gorm:"default:''" json:"institution"`
	Course      string     `gorm:"default:''" json:"course"`
	Phone       string     `gorm:"default:''" json:"phone"`
	Bio         string     `gorm:"type:text" json:"bio"`
	LastLogin   *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the public projection embedded in other payloads.
type UserSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Institution string `json:"institution,omitempty"`
	Course      string `json:"course,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Institution: u.Institution,
		Course:      u.Course,
		Image:       u.Image,
	}
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
