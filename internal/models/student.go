package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentStatus tracks a learner's standing on the platform.
type StudentStatus string

const (
	// StudentStatusActive marks a currently enrolled learner.
	StudentStatusActive StudentStatus = "active"
	// StudentStatusInactive marks a learner whose account is suspended.
	StudentStatusInactive StudentStatus = "inactive"
	// StudentStatusAlumni marks a learner who has left the school.
	StudentStatusAlumni StudentStatus = "alumni"
)

// Student represents a learner profile that can enroll in classes and submit work.
type Student struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        *uint          `gorm:"uniqueIndex" json:"user_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Email         string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StudentNumber string         `gorm:"size:64;uniqueIndex;not null" json:"student_number"`
	ClassID       *uint          `gorm:"index" json:"class_id"`
	Status        StudentStatus  `gorm:"size:32;not null;default:'active'" json:"status"`
	GuardianName  string         `gorm:"size:255" json:"guardian_name"`
	GuardianEmail string         `gorm:"size:255" json:"guardian_email"`
	Anonymized    bool           `gorm:"not null;default:false" json:"anonymized"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsActive reports whether the student may interact with assignments.
func (s Student) IsActive() bool {
	return s.Status == StudentStatusActive && !s.Anonymized
}
