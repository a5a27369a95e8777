package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/models"
)

// EventFilter narrows event list queries.
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	Audience string
	ClassID  *uint
	Page     int
	PageSize int
}

// EventRepository exposes persistence helpers for calendar events.
type EventRepository interface {
	List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)
	GetByID(ctx context.Context, id uint) (models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs the repository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})

	if filter.From != nil {
		query = query.Where("starts_at >= ?", *filter.From)
	}

	if filter.To != nil {
		query = query.Where("starts_at <= ?", *filter.To)
	}

	if filter.Audience != "" {
		query = query.Where("audience IN ?", []string{string(models.AudienceAll), filter.Audience})
	}

	if filter.ClassID != nil {
		query = query.Where("class_id IS NULL OR class_id = ?", *filter.ClassID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("starts_at ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}

	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *eventRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
