package models

import "time"

// Enrollment links a student to a class for one academic year.
// A student can hold at most one enrollment per class.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClassID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"class_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student" json:"student_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Class      Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
