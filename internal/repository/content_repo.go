package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/models"
)

// ContentPageFilter narrows content page list queries.
type ContentPageFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// ContentRepository exposes persistence helpers for content pages and their
// version history.
type ContentRepository interface {
	ListPages(ctx context.Context, filter ContentPageFilter) ([]models.ContentPage, int64, error)
	GetPage(ctx context.Context, id uint) (models.ContentPage, error)
	GetPageBySlug(ctx context.Context, slug string) (models.ContentPage, error)
	CreatePage(ctx context.Context, page *models.ContentPage) error
	UpdatePage(ctx context.Context, page *models.ContentPage) error
	DeletePage(ctx context.Context, id uint) error
	ListVersions(ctx context.Context, pageID uint) ([]models.ContentVersion, error)
	GetVersion(ctx context.Context, pageID, versionID uint) (models.ContentVersion, error)
	CreateVersion(ctx context.Context, version *models.ContentVersion) error
	PublishVersion(ctx context.Context, pageID, versionID uint, at time.Time) (models.ContentPage, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository constructs the repository implementation.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) ListPages(ctx context.Context, filter ContentPageFilter) ([]models.ContentPage, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContentPage{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var pages []models.ContentPage
	if err := query.Find(&pages).Error; err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

func (r *contentRepository) GetPage(ctx context.Context, id uint) (models.ContentPage, error) {
	var page models.ContentPage
	if err := r.db.WithContext(ctx).First(&page, id).Error; err != nil {
		return models.ContentPage{}, err
	}

	return page, nil
}

func (r *contentRepository) GetPageBySlug(ctx context.Context, slug string) (models.ContentPage, error) {
	var page models.ContentPage
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error; err != nil {
		return models.ContentPage{}, err
	}

	return page, nil
}

func (r *contentRepository) CreatePage(ctx context.Context, page *models.ContentPage) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *contentRepository) UpdatePage(ctx context.Context, page *models.ContentPage) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *contentRepository) DeletePage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_page_id = ?", id).Delete(&models.ContentVersion{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.ContentPage{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *contentRepository) ListVersions(ctx context.Context, pageID uint) ([]models.ContentVersion, error) {
	var versions []models.ContentVersion
	if err := r.db.WithContext(ctx).
		Where("content_page_id = ?", pageID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}

func (r *contentRepository) GetVersion(ctx context.Context, pageID, versionID uint) (models.ContentVersion, error) {
	var version models.ContentVersion
	if err := r.db.WithContext(ctx).
		Where("id = ? AND content_page_id = ?", versionID, pageID).
		First(&version).Error; err != nil {
		return models.ContentVersion{}, err
	}

	return version, nil
}

// CreateVersion stores a new snapshot, allocating the next version number for
// the page inside one transaction so concurrent writers cannot claim the same
// number.
func (r *contentRepository) CreateVersion(ctx context.Context, version *models.ContentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var highest int
		if err := tx.Model(&models.ContentVersion{}).
			Where("content_page_id = ?", version.ContentPageID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&highest).Error; err != nil {
			return err
		}

		version.VersionNumber = highest + 1
		version.IsCurrent = false
		return tx.Create(version).Error
	})
}

// PublishVersion promotes a snapshot to the page's current state. Clearing
// the sibling current flags, setting the target's flag and copying the
// snapshot onto the page happen in one transaction so at most one version per
// page is ever current.
func (r *contentRepository) PublishVersion(ctx context.Context, pageID, versionID uint, at time.Time) (models.ContentPage, error) {
	var published models.ContentPage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var version models.ContentVersion
		if err := tx.Where("id = ? AND content_page_id = ?", versionID, pageID).First(&version).Error; err != nil {
			return err
		}

		var page models.ContentPage
		if err := tx.First(&page, pageID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ContentVersion{}).
			Where("content_page_id = ?", pageID).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ContentVersion{}).
			Where("id = ?", version.ID).
			Update("is_current", true).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":              version.Title,
			"body":               version.Body,
			"status":             models.ContentStatusPublished,
			"current_version_id": version.ID,
		}
		if page.PublishedAt == nil {
			updates["published_at"] = at
		}

		if err := tx.Model(&models.ContentPage{}).
			Where("id = ?", pageID).
			Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&published, pageID).Error
	})
	if err != nil {
		return models.ContentPage{}, err
	}

	return published, nil
}
