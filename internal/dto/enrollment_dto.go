package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// EnrollmentRequest enrolls a student into a class.
type EnrollmentRequest struct {
	ClassID   uint `json:"class_id" validate:"required,gt=0"`
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// EnrollmentResponse serializes a class membership record.
type EnrollmentResponse struct {
	ID         uint        `json:"id"`
	ClassID    uint        `json:"class_id"`
	StudentID  uint        `json:"student_id"`
	EnrolledAt time.Time   `json:"enrolled_at"`
	Student    StudentLite `json:"student,omitempty"`
	ClassName  string      `json:"class_name,omitempty"`
}

// NewEnrollmentResponse converts an enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:         model.ID,
		ClassID:    model.ClassID,
		StudentID:  model.StudentID,
		EnrolledAt: model.EnrolledAt,
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	if model.Class.ID != 0 {
		response.ClassName = model.Class.Name
	}

	return response
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}

	return responses
}
