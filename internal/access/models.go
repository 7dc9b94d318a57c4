package access

import "time"

// Session is one logged-in administrator session.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func (Session) TableName() string { return "app_admin.sessions" }
