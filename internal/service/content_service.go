package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

var (
	// ErrContentPageNotFound indicates the content page was not located.
	ErrContentPageNotFound = errors.New("content page not found")
	// ErrContentVersionNotFound indicates the version does not belong to the page.
	ErrContentVersionNotFound = errors.New("content version not found")
	// ErrContentSlugTaken indicates the slug is already in use.
	ErrContentSlugTaken = errors.New("content slug already in use")
)

// ContentService manages editable pages and their version history.
type ContentService interface {
	ListPages(ctx context.Context, status, search string, page, pageSize int) (dto.ContentPageListResponse, error)
	GetPage(ctx context.Context, id uint) (dto.ContentPageResponse, error)
	GetPageBySlug(ctx context.Context, slug string) (dto.ContentPageResponse, error)
	CreatePage(ctx context.Context, req dto.ContentPageCreateRequest, actor ActivityActor) (dto.ContentPageResponse, error)
	UpdatePage(ctx context.Context, id uint, req dto.ContentPageUpdateRequest, actor ActivityActor) (dto.ContentPageResponse, error)
	DeletePage(ctx context.Context, id uint, actor ActivityActor) error
	ListVersions(ctx context.Context, pageID uint) ([]dto.ContentVersionResponse, error)
	CreateVersion(ctx context.Context, pageID uint, req dto.ContentVersionCreateRequest, actor ActivityActor) (dto.ContentVersionResponse, error)
	PublishVersion(ctx context.Context, pageID, versionID uint, actor ActivityActor) (dto.ContentPageResponse, error)
}

type contentService struct {
	repo      repository.ContentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewContentService constructs the content service.
func NewContentService(repo repository.ContentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ContentService {
	return &contentService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "content_service").Logger(),
		policy:    bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

func (s *contentService) ListPages(ctx context.Context, status, search string, page, pageSize int) (dto.ContentPageListResponse, error) {
	filter := repository.ContentPageFilter{
		Search:   strings.TrimSpace(search),
		Page:     page,
		PageSize: pageSize,
	}
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		filter.Status = string(models.NormalizeContentStatus(trimmed))
	}

	pages, total, err := s.repo.ListPages(ctx, filter)
	if err != nil {
		return dto.ContentPageListResponse{}, err
	}

	return dto.ContentPageListResponse{
		Items:      dto.NewContentPageResponseSlice(pages),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *contentService) GetPage(ctx context.Context, id uint) (dto.ContentPageResponse, error) {
	page, err := s.repo.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContentPageResponse{}, ErrContentPageNotFound
		}
		return dto.ContentPageResponse{}, err
	}

	return dto.NewContentPageResponse(page), nil
}

func (s *contentService) GetPageBySlug(ctx context.Context, slug string) (dto.ContentPageResponse, error) {
	page, err := s.repo.GetPageBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContentPageResponse{}, ErrContentPageNotFound
		}
		return dto.ContentPageResponse{}, err
	}

	return dto.NewContentPageResponse(page), nil
}

func (s *contentService) CreatePage(ctx context.Context, req dto.ContentPageCreateRequest, actor ActivityActor) (dto.ContentPageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ContentPageResponse{}, err
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if _, err := s.repo.GetPageBySlug(ctx, slug); err == nil {
		return dto.ContentPageResponse{}, ErrContentSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ContentPageResponse{}, err
	}

	page := models.ContentPage{
		Slug:      slug,
		Title:     strings.TrimSpace(req.Title),
		Body:      s.policy.Sanitize(req.Body),
		Status:    models.ContentStatusDraft,
		CreatedBy: actor.ID,
	}

	if err := s.repo.CreatePage(ctx, &page); err != nil {
		return dto.ContentPageResponse{}, err
	}

	s.record(ctx, actor, "content.page_created", page.ID, map[string]interface{}{
		"slug": page.Slug,
	})

	return dto.NewContentPageResponse(page), nil
}

func (s *contentService) UpdatePage(ctx context.Context, id uint, req dto.ContentPageUpdateRequest, actor ActivityActor) (dto.ContentPageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ContentPageResponse{}, err
	}

	page, err := s.repo.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContentPageResponse{}, ErrContentPageNotFound
		}
		return dto.ContentPageResponse{}, err
	}

	if req.Title != nil {
		page.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		page.Body = s.policy.Sanitize(*req.Body)
	}
	if req.Status != nil {
		page.Status = models.NormalizeContentStatus(*req.Status)
	}

	if err := s.repo.UpdatePage(ctx, &page); err != nil {
		return dto.ContentPageResponse{}, err
	}

	s.record(ctx, actor, "content.page_updated", page.ID, map[string]interface{}{
		"slug": page.Slug,
	})

	return dto.NewContentPageResponse(page), nil
}

func (s *contentService) DeletePage(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.DeletePage(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContentPageNotFound
		}
		return err
	}

	s.record(ctx, actor, "content.page_deleted", id, nil)
	return nil
}

func (s *contentService) ListVersions(ctx context.Context, pageID uint) ([]dto.ContentVersionResponse, error) {
	if _, err := s.repo.GetPage(ctx, pageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentPageNotFound
		}
		return nil, err
	}

	versions, err := s.repo.ListVersions(ctx, pageID)
	if err != nil {
		return nil, err
	}

	return dto.NewContentVersionResponseSlice(versions), nil
}

// CreateVersion snapshots the submitted fields under the next version number
// for the page. The snapshot is immutable once stored.
func (s *contentService) CreateVersion(ctx context.Context, pageID uint, req dto.ContentVersionCreateRequest, actor ActivityActor) (dto.ContentVersionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ContentVersionResponse{}, err
	}

	if _, err := s.repo.GetPage(ctx, pageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContentVersionResponse{}, ErrContentPageNotFound
		}
		return dto.ContentVersionResponse{}, err
	}

	version := models.ContentVersion{
		ContentPageID: pageID,
		Title:         strings.TrimSpace(req.Title),
		Body:          s.policy.Sanitize(req.Body),
		ChangeNote:    strings.TrimSpace(req.ChangeNote),
		CreatedBy:     actor.ID,
	}

	if err := s.repo.CreateVersion(ctx, &version); err != nil {
		return dto.ContentVersionResponse{}, err
	}

	s.record(ctx, actor, "content.version_created", pageID, map[string]interface{}{
		"version_number": version.VersionNumber,
	})

	return dto.NewContentVersionResponse(version), nil
}

// PublishVersion promotes a snapshot to the page's live state. The flag swap
// and the page copy are atomic; the first publish time is kept on republish.
func (s *contentService) PublishVersion(ctx context.Context, pageID, versionID uint, actor ActivityActor) (dto.ContentPageResponse, error) {
	page, err := s.repo.PublishVersion(ctx, pageID, versionID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContentPageResponse{}, ErrContentVersionNotFound
		}
		return dto.ContentPageResponse{}, err
	}

	s.record(ctx, actor, "content.version_published", pageID, map[string]interface{}{
		"version_id": versionID,
	})

	return dto.NewContentPageResponse(page), nil
}

func (s *contentService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "content_page",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("content_page_id", entityID).Msg("failed to record content activity")
	}
}
