package models

import "time"

// Event represents a dated calendar entry such as an exam or a school trip.
type Event struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Description string               `gorm:"type:text" json:"description"`
	Location    string               `gorm:"size:255" json:"location"`
	StartsAt    time.Time            `gorm:"not null;index" json:"starts_at"`
	EndsAt      *time.Time           `json:"ends_at"`
	Audience    AnnouncementAudience `gorm:"size:32;not null;default:'all'" json:"audience"`
	ClassID     *uint                `gorm:"index" json:"class_id"`
	CreatedBy   uint                 `gorm:"index" json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ValidateSchedule checks that the optional end time follows the start time.
func (e Event) ValidateSchedule() error {
	if e.EndsAt != nil && !e.StartsAt.Before(*e.EndsAt) {
		return ErrEventSchedule
	}
	return nil
}

// IsUpcoming reports whether the event has not yet started.
func (e Event) IsUpcoming(reference time.Time) bool {
	return e.StartsAt.After(reference)
}
