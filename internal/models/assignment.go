package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// AssignmentType categorises the kind of work an assignment asks for.
type AssignmentType string

const (
	// AssignmentTypeHomework is routine take-home work.
	AssignmentTypeHomework AssignmentType = "homework"
	// AssignmentTypeQuiz is a short graded check.
	AssignmentTypeQuiz AssignmentType = "quiz"
	// AssignmentTypeExam is a formal examination.
	AssignmentTypeExam AssignmentType = "exam"
	// AssignmentTypeProject is long-running project work.
	AssignmentTypeProject AssignmentType = "project"
	// AssignmentTypeLab is practical lab work.
	AssignmentTypeLab AssignmentType = "lab"
)

// NormalizeAssignmentType coerces arbitrary input into a known type, defaulting to homework.
func NormalizeAssignmentType(value string) AssignmentType {
	switch AssignmentType(strings.ToLower(strings.TrimSpace(value))) {
	case AssignmentTypeQuiz:
		return AssignmentTypeQuiz
	case AssignmentTypeExam:
		return AssignmentTypeExam
	case AssignmentTypeProject:
		return AssignmentTypeProject
	case AssignmentTypeLab:
		return AssignmentTypeLab
	default:
		return AssignmentTypeHomework
	}
}

// Assignment represents graded work set for a class in a subject.
type Assignment struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Title               string         `gorm:"size:255;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	Instructions        string         `gorm:"type:text" json:"instructions"`
	ClassID             uint           `gorm:"not null;index" json:"class_id"`
	SubjectID           uint           `gorm:"not null;index" json:"subject_id"`
	TeacherID           uint           `gorm:"not null;index" json:"teacher_id"`
	Type                AssignmentType `gorm:"size:32;not null;default:'homework'" json:"type"`
	MaxPoints           int            `gorm:"not null;default:100" json:"max_points"`
	DueDate             time.Time      `gorm:"not null;index" json:"due_date"`
	AvailableFrom       *time.Time     `json:"available_from"`
	AvailableUntil      *time.Time     `json:"available_until"`
	AllowLateSubmission bool           `gorm:"not null;default:false" json:"allow_late_submission"`
	LatePenaltyPercent  float64        `gorm:"not null;default:0" json:"late_penalty_percent"`
	AttachmentsRaw      string         `gorm:"column:attachments;type:text" json:"-"`
	IsPublished         bool           `gorm:"not null;default:false;index" json:"is_published"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Attachments         []string       `gorm:"-" json:"attachments"`
	Class               Class          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Subject             Subject        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions         []Submission   `json:"-"`
}

// BeforeSave serialises the attachment list before persisting.
func (a *Assignment) BeforeSave(tx *gorm.DB) error {
	a.AttachmentsRaw = encodeAttachments(a.Attachments)
	return nil
}

// AfterFind hydrates the attachment list after retrieval.
func (a *Assignment) AfterFind(tx *gorm.DB) error {
	a.Attachments = decodeAttachments(a.AttachmentsRaw)
	return nil
}

func encodeAttachments(refs []string) string {
	if len(refs) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(refs))
	for _, ref := range refs {
		trimmed := strings.TrimSpace(ref)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeAttachments(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	refs := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		refs = append(refs, trimmed)
	}
	return refs
}

// IsAvailable reports whether the assignment can be opened at the given time.
// Unpublished assignments are never available; a nil window bound does not constrain.
func (a Assignment) IsAvailable(reference time.Time) bool {
	if !a.IsPublished {
		return false
	}
	if a.AvailableFrom != nil && reference.Before(*a.AvailableFrom) {
		return false
	}
	if a.AvailableUntil != nil && reference.After(*a.AvailableUntil) {
		return false
	}
	return true
}

// IsOverdue reports whether the due date has already passed.
func (a Assignment) IsOverdue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// CanSubmitLate reports whether work can still be handed in at the given time
// even though the due date has passed. Requires the assignment to accept late
// submissions and the availability window to still be open.
func (a Assignment) CanSubmitLate(reference time.Time) bool {
	if !a.AllowLateSubmission || !a.IsOverdue(reference) {
		return false
	}
	return a.AvailableUntil == nil || !reference.After(*a.AvailableUntil)
}

// ValidateWindow checks that the optional availability window brackets the due date.
func (a Assignment) ValidateWindow() error {
	if a.AvailableFrom != nil && !a.AvailableFrom.Before(a.DueDate) {
		return ErrAssignmentWindow
	}
	if a.AvailableUntil != nil && !a.DueDate.Before(*a.AvailableUntil) {
		return ErrAssignmentWindow
	}
	return nil
}
