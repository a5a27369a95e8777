package models

import "time"

// Class represents a homeroom group that students enroll into.
type Class struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	GradeLevel   int       `gorm:"not null" json:"grade_level"`
	AcademicYear string    `gorm:"size:16;not null;index" json:"academic_year"`
	HomeroomID   *uint     `gorm:"index" json:"homeroom_id"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Students     []Student `json:"-"`
}
