package models

import (
	"strings"
	"time"
)

// AnnouncementAudience scopes who an announcement is shown to.
type AnnouncementAudience string

const (
	// AudienceAll targets every authenticated user.
	AudienceAll AnnouncementAudience = "all"
	// AudienceTeachers targets staff only.
	AudienceTeachers AnnouncementAudience = "teachers"
	// AudienceStudents targets learners only.
	AudienceStudents AnnouncementAudience = "students"
	// AudienceClass targets the members of one class.
	AudienceClass AnnouncementAudience = "class"
)

// NormalizeAudience coerces arbitrary input into a known audience, defaulting to all.
func NormalizeAudience(value string) AnnouncementAudience {
	switch AnnouncementAudience(strings.ToLower(strings.TrimSpace(value))) {
	case AudienceTeachers:
		return AudienceTeachers
	case AudienceStudents:
		return AudienceStudents
	case AudienceClass:
		return AudienceClass
	default:
		return AudienceAll
	}
}

// Announcement represents a broadcast message displayed to platform users.
type Announcement struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	Slug          string               `gorm:"size:128;uniqueIndex" json:"slug"`
	Title         string               `gorm:"size:255;not null" json:"title"`
	Body          string               `gorm:"type:text;not null" json:"body"`
	Audience      AnnouncementAudience `gorm:"size:32;not null;default:'all'" json:"audience"`
	TargetClassID *uint                `gorm:"index" json:"target_class_id"`
	StartsAt      time.Time            `gorm:"index" json:"starts_at"`
	EndsAt        *time.Time           `gorm:"index" json:"ends_at"`
	IsPinned      bool                 `gorm:"index" json:"is_pinned"`
	CreatedBy     uint                 `gorm:"index" json:"created_by"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// IsActive reports whether the announcement should be displayed at the given time.
func (a Announcement) IsActive(reference time.Time) bool {
	if reference.Before(a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && reference.After(*a.EndsAt) {
		return false
	}
	return true
}
