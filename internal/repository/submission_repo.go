package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/models"
)

// ErrTransitionConflict reports that a submission was moved to another status
// by a concurrent request between the read and the guarded write.
var ErrTransitionConflict = errors.New("submission transitioned concurrently")

// SubmissionFilter narrows submission list queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *models.SubmissionStatus
	Page         int
	PageSize     int
}

// SubmissionRepository exposes persistence helpers for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Transition(ctx context.Context, id uint, mutate func(*models.Submission) error) (models.Submission, error)
	RecomputeLateness(ctx context.Context, assignmentID uint, dueDate time.Time) (int64, error)
	ScrubByStudent(ctx context.Context, studentID uint) (int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs the repository implementation.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// Transition runs a lifecycle mutation inside one transaction. The row is
// re-read inside the transaction, mutate adjusts it, and the write is claimed
// with a guard on the status the row held at read time so that two racing
// transitions can never both succeed from the same prior state.
func (r *submissionRepository) Transition(ctx context.Context, id uint, mutate func(*models.Submission) error) (models.Submission, error) {
	var result models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Preload("Assignment").Preload("Student").First(&submission, id).Error; err != nil {
			return err
		}

		prior := submission.Status
		if err := mutate(&submission); err != nil {
			return err
		}

		claim := tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Where("status = ?", prior).
			Update("status", submission.Status)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrTransitionConflict
		}

		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		result = submission
		return nil
	})
	if err != nil {
		return models.Submission{}, err
	}

	return result, nil
}

// RecomputeLateness re-derives the late flag for every handed-in submission of
// an assignment in one statement. Grades already applied are left untouched.
func (r *submissionRepository) RecomputeLateness(ctx context.Context, assignmentID uint, dueDate time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Where("submitted_at IS NOT NULL").
		Update("is_late", gorm.Expr("submitted_at > ?", dueDate))
	return result.RowsAffected, result.Error
}

// ScrubByStudent blanks the free-text content and attachment references of
// every submission a student authored. Grades, points and status are kept so
// academic aggregates stay intact.
func (r *submissionRepository) ScrubByStudent(ctx context.Context, studentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ?", studentID).
		Updates(map[string]interface{}{
			"content":     "",
			"attachments": "",
		})
	return result.RowsAffected, result.Error
}
