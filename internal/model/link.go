package model

import "time"

// Link maps a generated short code (and optionally a user-chosen alias)
// to a destination URL. Code and alias are independent unique namespaces;
// lookup tries the alias first.
type Link struct {
	BaseModel
	ShortCode   string     `gorm:"uniqueIndex;size:20;not null" json:"shortCode"`
	CustomAlias *string    `gorm:"uniqueIndex;size:50" json:"customAlias,omitempty"`
	OriginalURL string     `gorm:"size:2048;not null" json:"originalUrl"`
	Title       string     `gorm:"size:200" json:"title"`
	UserID      *uint      `gorm:"index" json:"userId,omitempty"`
	ClicksCount int64      `gorm:"default:0" json:"clicksCount"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Code returns the identifier the short URL is served under.
func (l *Link) Code() string {
	if l.CustomAlias != nil && *l.CustomAlias != "" {
		return *l.CustomAlias
	}
	return l.ShortCode
}

// IsExpired reports whether the link's expiry timestamp has passed.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
