package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

var (
	// ErrAnnouncementNotFound indicates the announcement was not located.
	ErrAnnouncementNotFound = errors.New("announcement not found")
	// ErrAnnouncementSlugTaken indicates the slug is already in use.
	ErrAnnouncementSlugTaken = errors.New("announcement slug already in use")
)

// AnnouncementService manages announcements and the cached active listing.
type AnnouncementService interface {
	ListActive(ctx context.Context, audience string, classID *uint, page, pageSize int) (dto.AnnouncementListResponse, error)
	Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error)
	Create(ctx context.Context, req dto.AnnouncementCreateRequest, actor ActivityActor) (dto.AnnouncementResponse, error)
	Update(ctx context.Context, id uint, req dto.AnnouncementUpdateRequest, actor ActivityActor) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewAnnouncementService constructs the announcement service.
func NewAnnouncementService(repo repository.AnnouncementRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AnnouncementService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	policy.AllowAttrs("href", "title", "target").OnElements("a")
	return &announcementService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "announcement_service").Logger(),
		policy:    policy,
		now:       time.Now,
	}
}

func (s *announcementService) ListActive(ctx context.Context, audience string, classID *uint, page, pageSize int) (dto.AnnouncementListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	audience = string(models.NormalizeAudience(audience))

	cacheKey := ""
	if s.cache != nil {
		class := uint(0)
		if classID != nil {
			class = *classID
		}
		cacheKey = fmt.Sprintf("announcements:active:v1:%s:%d:%d:%d", audience, class, page, pageSize)
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.AnnouncementListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != nil && err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read announcements cache")
		}
	}

	items, total, err := s.repo.ListActive(ctx, s.now(), repository.AnnouncementFilter{
		Audience: audience,
		ClassID:  classID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		response := dto.NewAnnouncementResponse(item)
		response.Title = strings.TrimSpace(response.Title)
		response.Body = s.policy.Sanitize(response.Body)
		responses = append(responses, response)
	}

	response := dto.AnnouncementListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache announcements")
			}
		}
	}

	return response, nil
}

func (s *announcementService) Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error) {
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, err
	}

	response := dto.NewAnnouncementResponse(announcement)
	response.Body = s.policy.Sanitize(response.Body)
	return response, nil
}

func (s *announcementService) Create(ctx context.Context, req dto.AnnouncementCreateRequest, actor ActivityActor) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return dto.AnnouncementResponse{}, ErrAnnouncementSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AnnouncementResponse{}, err
	}

	startsAt := s.now()
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}

	announcement := models.Announcement{
		Slug:          slug,
		Title:         strings.TrimSpace(req.Title),
		Body:          s.policy.Sanitize(req.Body),
		Audience:      models.NormalizeAudience(req.Audience),
		TargetClassID: req.TargetClassID,
		StartsAt:      startsAt,
		EndsAt:        req.EndsAt,
		IsPinned:      req.IsPinned,
		CreatedBy:     actor.ID,
	}

	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.invalidateCache(ctx)
	s.record(ctx, actor, "announcement.created", announcement.ID, map[string]interface{}{
		"slug": announcement.Slug,
	})

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Update(ctx context.Context, id uint, req dto.AnnouncementUpdateRequest, actor ActivityActor) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, err
	}

	if req.Title != nil {
		announcement.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		announcement.Body = s.policy.Sanitize(*req.Body)
	}
	if req.Audience != nil {
		announcement.Audience = models.NormalizeAudience(*req.Audience)
	}
	if req.TargetClassID != nil {
		announcement.TargetClassID = req.TargetClassID
	}
	if req.StartsAt != nil {
		announcement.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		announcement.EndsAt = req.EndsAt
	}
	if req.IsPinned != nil {
		announcement.IsPinned = *req.IsPinned
	}

	if err := s.repo.Update(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.invalidateCache(ctx)
	s.record(ctx, actor, "announcement.updated", announcement.ID, map[string]interface{}{
		"slug": announcement.Slug,
	})

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}

	s.invalidateCache(ctx)
	s.record(ctx, actor, "announcement.deleted", id, nil)
	return nil
}

// invalidateCache drops every cached page of the active listing. The key
// space is scanned rather than flushed so unrelated caches survive.
func (s *announcementService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, "announcements:active:v1:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", iter.Val()).Msg("failed to drop announcements cache key")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan announcements cache keys")
	}
}

func (s *announcementService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "announcement",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("announcement_id", entityID).Msg("failed to record announcement activity")
	}
}
