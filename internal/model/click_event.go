package model

import "time"

// ClickEvent records one redirect traversal. Derived fields are computed
// once from the user-agent at creation time and never recomputed.
type ClickEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LinkID     uint      `gorm:"index;not null" json:"linkId"`
	ClickedAt  time.Time `gorm:"index;not null" json:"clickedAt"`
	IPAddress  *string   `gorm:"size:45" json:"ipAddress,omitempty"`
	UserAgent  string    `gorm:"size:500" json:"userAgent"`
	Referrer   string    `gorm:"size:2048" json:"referrer"`
	Country    string    `gorm:"size:100" json:"country"`
	City       string    `gorm:"size:100" json:"city"`
	DeviceType string    `gorm:"size:50;index" json:"deviceType"`
	Browser    string    `gorm:"size:100;index" json:"browser"`
	OS         string    `gorm:"size:100" json:"os"`
}
