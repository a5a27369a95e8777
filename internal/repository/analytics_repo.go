package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/models"
)

// AnalyticsRepository supplies data for platform analytics.
type AnalyticsRepository interface {
	CountActiveStudents(ctx context.Context) (int64, error)
	CountAssignments(ctx context.Context, publishedOnly bool) (int64, error)
	ListSubmissionsWithAssignments(ctx context.Context) ([]models.Submission, error)
	ListSubmissionsSince(ctx context.Context, since time.Time) ([]models.Submission, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountActiveStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("status = ?", models.StudentStatusActive).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepository) CountAssignments(ctx context.Context, publishedOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *analyticsRepository) ListSubmissionsWithAssignments(ctx context.Context) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Student").
		Find(&submissions).Error
	return submissions, err
}

// ListSubmissionsSince returns submissions handed in at or after the given
// instant. Drafts carry no submission timestamp and are excluded.
func (r *analyticsRepository) ListSubmissionsSince(ctx context.Context, since time.Time) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("submitted_at >= ?", since).
		Find(&submissions).Error
	return submissions, err
}
