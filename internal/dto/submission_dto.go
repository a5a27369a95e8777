package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// SubmissionStartRequest opens or resumes a draft for an assignment.
type SubmissionStartRequest struct {
	AssignmentID uint     `json:"assignment_id" validate:"required,gt=0"`
	Content      string   `json:"content" validate:"omitempty,max=50000"`
	Attachments  []string `json:"attachments" validate:"omitempty,dive,min=1"`
}

// SubmissionSubmitRequest hands a draft in, optionally replacing its content.
type SubmissionSubmitRequest struct {
	Content     *string  `json:"content" validate:"omitempty,max=50000"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,min=1"`
}

// SubmissionGradeRequest evaluates a submitted piece of work. Score is a
// pointer so a zero score passes the required check; out-of-range values are
// clamped by the lifecycle engine rather than rejected here.
type SubmissionGradeRequest struct {
	Score    *float64 `json:"score" validate:"required"`
	Feedback string   `json:"feedback" validate:"omitempty,max=10000"`
}

// SubmissionListRequest describes filters for listing submissions.
type SubmissionListRequest struct {
	Page         int
	PageSize     int
	AssignmentID *uint
	StudentID    *uint
	Status       string
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint           `json:"id"`
	AssignmentID uint           `json:"assignment_id"`
	StudentID    uint           `json:"student_id"`
	Content      string         `json:"content"`
	Attachments  []string       `json:"attachments"`
	Status       string         `json:"status"`
	SubmittedAt  *time.Time     `json:"submitted_at"`
	IsLate       bool           `json:"is_late"`
	DaysLate     int            `json:"days_late"`
	Grade        *float64       `json:"grade"`
	LetterGrade  *string        `json:"letter_grade"`
	PointsEarned *int           `json:"points_earned"`
	Feedback     string         `json:"feedback"`
	GradedBy     *uint          `json:"graded_by"`
	GradedAt     *time.Time     `json:"graded_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   AssignmentLite `json:"assignment"`
	Student      StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"due_date"`
	MaxPoints int       `json:"max_points"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionListResponse wraps a paginated submission listing.
type SubmissionListResponse struct {
	Items      []SubmissionResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	attachments := model.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		Attachments:  attachments,
		Status:       string(model.Status),
		SubmittedAt:  model.SubmittedAt,
		IsLate:       model.IsLate,
		DaysLate:     model.DaysLate(),
		Grade:        model.Grade,
		LetterGrade:  model.LetterGrade(),
		PointsEarned: model.PointsEarned,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			Title:     model.Assignment.Title,
			DueDate:   model.Assignment.DueDate,
			MaxPoints: model.Assignment.MaxPoints,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
