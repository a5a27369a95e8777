package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// StudentCreateRequest registers a new student profile.
type StudentCreateRequest struct {
	Name          string `json:"name" validate:"required,min=2"`
	Email         string `json:"email" validate:"required,email"`
	StudentNumber string `json:"student_number" validate:"required,min=2"`
	ClassID       *uint  `json:"class_id" validate:"omitempty,gt=0"`
	GuardianName  string `json:"guardian_name" validate:"omitempty,min=2"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

// StudentUpdateRequest captures partial update payloads for students.
type StudentUpdateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2"`
	Email         *string `json:"email" validate:"omitempty,email"`
	ClassID       *uint   `json:"class_id" validate:"omitempty,gt=0"`
	Status        *string `json:"status" validate:"omitempty,oneof=active inactive alumni"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,min=2"`
	GuardianEmail *string `json:"guardian_email" validate:"omitempty,email"`
}

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	ClassID  *uint
	Status   string
	Sort     string
}

// StudentResponse serializes a student profile.
type StudentResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	StudentNumber string     `json:"student_number"`
	ClassID       *uint      `json:"class_id"`
	Status        string     `json:"status"`
	GuardianName  string     `json:"guardian_name"`
	GuardianEmail string     `json:"guardian_email"`
	Anonymized    bool       `json:"anonymized"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	var deletedAt *time.Time
	if model.DeletedAt.Valid {
		t := model.DeletedAt.Time
		deletedAt = &t
	}

	return StudentResponse{
		ID:            model.ID,
		Name:          model.Name,
		Email:         model.Email,
		StudentNumber: model.StudentNumber,
		ClassID:       model.ClassID,
		Status:        string(model.Status),
		GuardianName:  model.GuardianName,
		GuardianEmail: model.GuardianEmail,
		Anonymized:    model.Anonymized,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		DeletedAt:     deletedAt,
	}
}

// NewStudentResponseSlice converts student models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}
