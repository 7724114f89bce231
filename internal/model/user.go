package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	BaseModel
	Username string `gorm:"size:50;unique;not null" json:"username"`
	Email    string `gorm:"size:100;unique;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
	Role     UserRole `gorm:"size:20;not null;default:'user'" json:"role"`
	// Points accumulates across quiz cycles; mutated only by a successful
	// submission.
	Points       int        `gorm:"not null;default:0" json:"points"`
	JoinStatus   JoinStatus `gorm:"size:20;not null;default:'not_joined';index" json:"joinStatus"`
	UserStatus   UserStatus `gorm:"size:20;not null;default:'normal';index" json:"userStatus"`
	Timeout      bool       `gorm:"not null;default:false;index" json:"timeout"`
	TimeoutUntil *time.Time `gorm:"index" json:"timeoutUntil"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TimeoutExpired reports whether a bounded timeout has run out. A nil bound
// with timeout set means a permanent ban and never expires.
func (u *User) TimeoutExpired(now time.Time) bool {
	return u.Timeout && u.TimeoutUntil != nil && !now.Before(*u.TimeoutUntil)
}
