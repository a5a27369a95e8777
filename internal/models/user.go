package models

import (
	"strings"
	"time"
)

// UserRole identifies the access level of a platform account.
type UserRole string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin UserRole = "admin"
	// RoleTeacher grants class, assignment and grading access.
	RoleTeacher UserRole = "teacher"
	// RoleStudent grants read access plus submission operations.
	RoleStudent UserRole = "student"
)

// User represents an authenticated platform account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:32;not null;default:'student'" json:"role"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsStaff reports whether the user may manage classes, assignments and grades.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}

// NormalizeRole coerces arbitrary input into a known role, defaulting to student.
func NormalizeRole(value string) UserRole {
	switch UserRole(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTeacher:
		return RoleTeacher
	default:
		return RoleStudent
	}
}
