package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// AssignmentCreateRequest captures metadata for creating an assignment.
type AssignmentCreateRequest struct {
	Title               string     `json:"title" validate:"required,min=3"`
	Description         string     `json:"description" validate:"omitempty,max=5000"`
	Instructions        string     `json:"instructions" validate:"omitempty,max=10000"`
	ClassID             uint       `json:"class_id" validate:"required,gt=0"`
	SubjectID           uint       `json:"subject_id" validate:"required,gt=0"`
	Type                string     `json:"type" validate:"omitempty,oneof=homework quiz exam project lab"`
	MaxPoints           int        `json:"max_points" validate:"required,gt=0"`
	DueDate             time.Time  `json:"due_date" validate:"required"`
	AvailableFrom       *time.Time `json:"available_from"`
	AvailableUntil      *time.Time `json:"available_until"`
	AllowLateSubmission bool       `json:"allow_late_submission"`
	LatePenaltyPercent  float64    `json:"late_penalty_percent" validate:"gte=0,lte=100"`
	Attachments         []string   `json:"attachments" validate:"omitempty,dive,min=1"`
}

// AssignmentUpdateRequest allows patching assignment metadata.
type AssignmentUpdateRequest struct {
	Title               *string    `json:"title" validate:"omitempty,min=3"`
	Description         *string    `json:"description" validate:"omitempty,max=5000"`
	Instructions        *string    `json:"instructions" validate:"omitempty,max=10000"`
	Type                *string    `json:"type" validate:"omitempty,oneof=homework quiz exam project lab"`
	MaxPoints           *int       `json:"max_points" validate:"omitempty,gt=0"`
	DueDate             *time.Time `json:"due_date"`
	AvailableFrom       *time.Time `json:"available_from"`
	AvailableUntil      *time.Time `json:"available_until"`
	AllowLateSubmission *bool      `json:"allow_late_submission"`
	LatePenaltyPercent  *float64   `json:"late_penalty_percent" validate:"omitempty,gte=0,lte=100"`
	Attachments         []string   `json:"attachments" validate:"omitempty,dive,min=1"`
}

// AssignmentListRequest defines filters for listing assignments.
type AssignmentListRequest struct {
	Page      int
	PageSize  int
	ClassID   *uint
	SubjectID *uint
	TeacherID *uint
	Type      string
	Published *bool
	DueAfter  *time.Time
	DueBefore *time.Time
}

// AssignmentResponse serializes an assignment together with its gating state.
type AssignmentResponse struct {
	ID                  uint       `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Instructions        string     `json:"instructions"`
	ClassID             uint       `json:"class_id"`
	SubjectID           uint       `json:"subject_id"`
	TeacherID           uint       `json:"teacher_id"`
	Type                string     `json:"type"`
	MaxPoints           int        `json:"max_points"`
	DueDate             time.Time  `json:"due_date"`
	AvailableFrom       *time.Time `json:"available_from"`
	AvailableUntil      *time.Time `json:"available_until"`
	AllowLateSubmission bool       `json:"allow_late_submission"`
	LatePenaltyPercent  float64    `json:"late_penalty_percent"`
	Attachments         []string   `json:"attachments"`
	IsPublished         bool       `json:"is_published"`
	IsAvailable         bool       `json:"is_available"`
	IsOverdue           bool       `json:"is_overdue"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AssignmentListResponse wraps a paginated assignment listing.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// SubmissionStatsResponse aggregates submission progress for one assignment.
type SubmissionStatsResponse struct {
	AssignmentID    uint     `json:"assignment_id"`
	TotalStudents   int64    `json:"total_students"`
	SubmittedCount  int64    `json:"submitted_count"`
	GradedCount     int64    `json:"graded_count"`
	LateCount       int64    `json:"late_count"`
	SubmissionRate  float64  `json:"submission_rate"`
	GradingProgress float64  `json:"grading_progress"`
	AverageGrade    *float64 `json:"average_grade"`
}

// NewAssignmentResponse converts an assignment model into a DTO, deriving the
// gating flags at the given reference time.
func NewAssignmentResponse(model models.Assignment, reference time.Time) AssignmentResponse {
	attachments := model.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return AssignmentResponse{
		ID:                  model.ID,
		Title:               model.Title,
		Description:         model.Description,
		Instructions:        model.Instructions,
		ClassID:             model.ClassID,
		SubjectID:           model.SubjectID,
		TeacherID:           model.TeacherID,
		Type:                string(model.Type),
		MaxPoints:           model.MaxPoints,
		DueDate:             model.DueDate,
		AvailableFrom:       model.AvailableFrom,
		AvailableUntil:      model.AvailableUntil,
		AllowLateSubmission: model.AllowLateSubmission,
		LatePenaltyPercent:  model.LatePenaltyPercent,
		Attachments:         attachments,
		IsPublished:         model.IsPublished,
		IsAvailable:         model.IsAvailable(reference),
		IsOverdue:           model.IsOverdue(reference),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, reference time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, reference))
	}

	return responses
}
