package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

// ErrEventNotFound indicates the calendar event was not located.
var ErrEventNotFound = errors.New("event not found")

// EventService manages the school calendar.
type EventService interface {
	List(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error)
	Get(ctx context.Context, id uint) (dto.EventResponse, error)
	Create(ctx context.Context, req dto.EventCreateRequest, actor ActivityActor) (dto.EventResponse, error)
	Update(ctx context.Context, id uint, req dto.EventUpdateRequest, actor ActivityActor) (dto.EventResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo repository.EventRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) EventService {
	return &eventService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "event_service").Logger(),
	}
}

func (s *eventService) List(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error) {
	filter := repository.EventFilter{
		From:     req.From,
		To:       req.To,
		ClassID:  req.ClassID,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if trimmed := strings.TrimSpace(req.Audience); trimmed != "" {
		filter.Audience = string(models.NormalizeAudience(trimmed))
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.EventListResponse{}, err
	}

	return dto.EventListResponse{
		Items:      dto.NewEventResponseSlice(events),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *eventService) Get(ctx context.Context, id uint) (dto.EventResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EventResponse{}, ErrEventNotFound
		}
		return dto.EventResponse{}, err
	}

	return dto.NewEventResponse(event), nil
}

func (s *eventService) Create(ctx context.Context, req dto.EventCreateRequest, actor ActivityActor) (dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EventResponse{}, err
	}

	event := models.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Audience:    models.NormalizeAudience(req.Audience),
		ClassID:     req.ClassID,
		CreatedBy:   actor.ID,
	}
	if err := event.ValidateSchedule(); err != nil {
		return dto.EventResponse{}, err
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		return dto.EventResponse{}, err
	}

	s.record(ctx, actor, "event.created", event.ID, map[string]interface{}{
		"title": event.Title,
	})

	return dto.NewEventResponse(event), nil
}

func (s *eventService) Update(ctx context.Context, id uint, req dto.EventUpdateRequest, actor ActivityActor) (dto.EventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EventResponse{}, err
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EventResponse{}, ErrEventNotFound
		}
		return dto.EventResponse{}, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.Audience != nil {
		event.Audience = models.NormalizeAudience(*req.Audience)
	}
	if req.ClassID != nil {
		event.ClassID = req.ClassID
	}

	if err := event.ValidateSchedule(); err != nil {
		return dto.EventResponse{}, err
	}

	if err := s.repo.Update(ctx, &event); err != nil {
		return dto.EventResponse{}, err
	}

	s.record(ctx, actor, "event.updated", event.ID, map[string]interface{}{
		"title": event.Title,
	})

	return dto.NewEventResponse(event), nil
}

func (s *eventService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	s.record(ctx, actor, "event.deleted", id, nil)
	return nil
}

func (s *eventService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "event",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("event_id", entityID).Msg("failed to record event activity")
	}
}
