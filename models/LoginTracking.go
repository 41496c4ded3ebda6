package models

import (
	"time"
)

type LoginTracking struct {
	Base
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	IPAddress string    `json:"ipAddress"`
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}
