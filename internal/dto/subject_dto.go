package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// SubjectCreateRequest registers a new subject.
type SubjectCreateRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=32"`
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	TeacherID   *uint  `json:"teacher_id" validate:"omitempty,gt=0"`
}

// SubjectUpdateRequest captures partial update payloads for subjects.
type SubjectUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TeacherID   *uint   `json:"teacher_id" validate:"omitempty,gt=0"`
}

// SubjectResponse serializes a subject.
type SubjectResponse struct {
	ID          uint      `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeacherID   *uint     `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubjectListResponse wraps a paginated subject listing.
type SubjectListResponse struct {
	Items      []SubjectResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewSubjectResponse converts a subject model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          model.ID,
		Code:        model.Code,
		Name:        model.Name,
		Description: model.Description,
		TeacherID:   model.TeacherID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewSubjectResponseSlice converts subject models into DTOs.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, NewSubjectResponse(subject))
	}

	return responses
}
