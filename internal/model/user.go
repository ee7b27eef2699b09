package model

import "time"

// User is the owner side of the Link relation. Only the fields the core
// needs are modeled here: plan tier, API key, ownership.
type User struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Plan        string     `gorm:"size:20;default:free" json:"plan"`
	PlanExpires *time.Time `json:"planExpires,omitempty"`
	APIKey      *string    `gorm:"uniqueIndex;size:64" json:"-"`
}
