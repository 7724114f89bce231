package model

import "time"

// RefreshToken stores one hashed refresh credential per issued token. Rows
// are revoked on logout/ban and swept by the daily cleanup job.
type RefreshToken struct {
	JTI       string     `gorm:"primaryKey;size:255" json:"jti"`
	UserID    uint       `gorm:"not null;index" json:"userId"`
	TokenHash string     `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt"`
	Device    string     `gorm:"size:255" json:"device"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
