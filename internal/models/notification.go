package models

import "time"

// Notification represents an in-app message targeted at a specific user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"size:64;not null" json:"type"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRead reports whether the user has acknowledged the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
