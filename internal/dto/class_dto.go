package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// ClassCreateRequest registers a new class.
type ClassCreateRequest struct {
	Name         string `json:"name" validate:"required,min=1"`
	GradeLevel   int    `json:"grade_level" validate:"required,gte=1,lte=13"`
	AcademicYear string `json:"academic_year" validate:"required,min=4"`
	HomeroomID   *uint  `json:"homeroom_id" validate:"omitempty,gt=0"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
}

// ClassUpdateRequest captures partial update payloads for classes.
type ClassUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	GradeLevel   *int    `json:"grade_level" validate:"omitempty,gte=1,lte=13"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,min=4"`
	HomeroomID   *uint   `json:"homeroom_id" validate:"omitempty,gt=0"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
}

// ClassResponse serializes a class.
type ClassResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	GradeLevel   int       `json:"grade_level"`
	AcademicYear string    `json:"academic_year"`
	HomeroomID   *uint     `json:"homeroom_id"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClassListResponse wraps a paginated class listing.
type ClassListResponse struct {
	Items      []ClassResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewClassResponse converts a class model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	return ClassResponse{
		ID:           model.ID,
		Name:         model.Name,
		GradeLevel:   model.GradeLevel,
		AcademicYear: model.AcademicYear,
		HomeroomID:   model.HomeroomID,
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewClassResponseSlice converts class models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}

	return responses
}
