package models

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// SubmissionStatus is the lifecycle state of a student's work on an assignment.
type SubmissionStatus string

const (
	// SubmissionStatusDraft marks work that has been started but not handed in.
	SubmissionStatusDraft SubmissionStatus = "draft"
	// SubmissionStatusSubmitted marks work handed in and awaiting a grade.
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	// SubmissionStatusGraded marks work that has been evaluated.
	SubmissionStatusGraded SubmissionStatus = "graded"
	// SubmissionStatusReturned marks graded work released back to the student.
	SubmissionStatusReturned SubmissionStatus = "returned"
)

// Submission represents one student's work on one assignment. A student holds
// at most one submission per assignment, enforced by a composite unique index.
type Submission struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	AssignmentID   uint             `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID      uint             `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content        string           `gorm:"type:text" json:"content"`
	AttachmentsRaw string           `gorm:"column:attachments;type:text" json:"-"`
	SubmittedAt    *time.Time       `gorm:"index" json:"submitted_at"`
	IsLate         bool             `gorm:"not null;default:false" json:"is_late"`
	Grade          *float64         `json:"grade"`
	PointsEarned   *int             `json:"points_earned"`
	Feedback       string           `gorm:"type:text" json:"feedback"`
	GradedBy       *uint            `json:"graded_by"`
	GradedAt       *time.Time       `json:"graded_at"`
	Status         SubmissionStatus `gorm:"size:32;not null;default:'draft';index" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Attachments    []string         `gorm:"-" json:"attachments"`
	Assignment     Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student        Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BeforeSave serialises the attachment list before persisting.
func (s *Submission) BeforeSave(tx *gorm.DB) error {
	s.AttachmentsRaw = encodeAttachments(s.Attachments)
	return nil
}

// AfterFind hydrates the attachment list after retrieval.
func (s *Submission) AfterFind(tx *gorm.DB) error {
	s.Attachments = decodeAttachments(s.AttachmentsRaw)
	return nil
}

// Submit moves draft work to submitted. The submission time is stamped from
// the caller and lateness is derived against the assignment due date at that
// moment. Any other starting status is refused without touching state.
func (s *Submission) Submit(at, dueDate time.Time) error {
	if s.Status != SubmissionStatusDraft {
		return fmt.Errorf("%w: submit requires draft, submission %d is %s", ErrInvalidTransition, s.ID, s.Status)
	}
	submittedAt := at
	s.SubmittedAt = &submittedAt
	s.IsLate = submittedAt.After(dueDate)
	s.Status = SubmissionStatusSubmitted
	return nil
}

// ApplyGrade evaluates submitted work. The score is clamped to the 0-100
// scale, the points figure is recomputed under the late policy, and grader
// identity plus grading time are recorded. Only submitted work can be graded.
func (s *Submission) ApplyGrade(score float64, feedback string, graderID *uint, at time.Time, latePenaltyPercent float64) error {
	if s.Status != SubmissionStatusSubmitted {
		return fmt.Errorf("%w: grade requires submitted, submission %d is %s", ErrInvalidTransition, s.ID, s.Status)
	}
	clamped := ClampGrade(score)
	points := CalculatePointsEarned(clamped, s.IsLate, latePenaltyPercent)
	gradedAt := at
	s.Grade = &clamped
	s.PointsEarned = &points
	s.Feedback = feedback
	s.GradedBy = graderID
	s.GradedAt = &gradedAt
	s.Status = SubmissionStatusGraded
	return nil
}

// ReturnToStudent releases graded work back to its author.
func (s *Submission) ReturnToStudent() error {
	if s.Status != SubmissionStatusGraded {
		return fmt.Errorf("%w: return requires graded, submission %d is %s", ErrInvalidTransition, s.ID, s.Status)
	}
	s.Status = SubmissionStatusReturned
	return nil
}

// RecomputeLateness re-derives the lateness flag from the stored submission
// time and the given due date. Unsubmitted drafts are never late.
func (s *Submission) RecomputeLateness(dueDate time.Time) {
	if s.SubmittedAt == nil {
		s.IsLate = false
		return
	}
	s.IsLate = s.SubmittedAt.After(dueDate)
}

// IsGraded reports whether the submission carries a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded || s.Status == SubmissionStatusReturned
}

// PercentageGrade returns the grade on its native 0-100 scale, nil when ungraded.
func (s Submission) PercentageGrade() *float64 {
	return s.Grade
}

// LetterGrade maps the numeric grade onto the A-F scale, nil when ungraded.
func (s Submission) LetterGrade() *string {
	if s.Grade == nil {
		return nil
	}
	letter := letterForGrade(*s.Grade)
	return &letter
}

// DaysLate returns the whole days between the assignment due date and the
// submission time, truncated toward zero. On-time work reports zero. The
// Assignment association must be loaded.
func (s Submission) DaysLate() int {
	if !s.IsLate || s.SubmittedAt == nil {
		return 0
	}
	return int(s.SubmittedAt.Sub(s.Assignment.DueDate).Hours() / 24)
}

// ClampGrade bounds a raw score to the 0-100 grading scale.
func ClampGrade(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CalculatePointsEarned converts a clamped percentage grade into stored
// points. Grades live on the 0-100 scale and are stored as points without
// scaling against max points; late work is reduced by the penalty percentage
// and floored at zero.
func CalculatePointsEarned(grade float64, isLate bool, latePenaltyPercent float64) int {
	if !isLate {
		return int(math.Round(grade))
	}
	adjusted := grade * (1 - latePenaltyPercent/100)
	if adjusted < 0 {
		adjusted = 0
	}
	return int(math.Round(adjusted))
}

func letterForGrade(grade float64) string {
	switch {
	case grade >= 90:
		return "A"
	case grade >= 80:
		return "B"
	case grade >= 70:
		return "C"
	case grade >= 60:
		return "D"
	default:
		return "F"
	}
}
