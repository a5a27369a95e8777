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

// ErrClassNotFound indicates the class was not located.
var ErrClassNotFound = errors.New("class not found")

// ClassService orchestrates class management.
type ClassService interface {
	List(ctx context.Context, search, academicYear string, gradeLevel *int, page, pageSize int) (dto.ClassListResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassResponse, error)
	Create(ctx context.Context, req dto.ClassCreateRequest, actor ActivityActor) (dto.ClassResponse, error)
	Update(ctx context.Context, id uint, req dto.ClassUpdateRequest, actor ActivityActor) (dto.ClassResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type classService struct {
	repo      repository.ClassRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo repository.ClassRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ClassService {
	return &classService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) List(ctx context.Context, search, academicYear string, gradeLevel *int, page, pageSize int) (dto.ClassListResponse, error) {
	classes, total, err := s.repo.List(ctx, repository.ClassFilter{
		Search:       strings.TrimSpace(search),
		AcademicYear: strings.TrimSpace(academicYear),
		GradeLevel:   gradeLevel,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return dto.ClassListResponse{}, err
	}

	return dto.ClassListResponse{
		Items:      dto.NewClassResponseSlice(classes),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *classService) Get(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Create(ctx context.Context, req dto.ClassCreateRequest, actor ActivityActor) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Name:         strings.TrimSpace(req.Name),
		GradeLevel:   req.GradeLevel,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		HomeroomID:   req.HomeroomID,
		Description:  req.Description,
	}

	if err := s.repo.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.record(ctx, actor, "class.created", class.ID, map[string]interface{}{
		"name":          class.Name,
		"academic_year": class.AcademicYear,
	})

	return dto.NewClassResponse(class), nil
}

func (s *classService) Update(ctx context.Context, id uint, req dto.ClassUpdateRequest, actor ActivityActor) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.GradeLevel != nil {
		class.GradeLevel = *req.GradeLevel
	}
	if req.AcademicYear != nil {
		class.AcademicYear = strings.TrimSpace(*req.AcademicYear)
	}
	if req.HomeroomID != nil {
		class.HomeroomID = req.HomeroomID
	}
	if req.Description != nil {
		class.Description = *req.Description
	}

	if err := s.repo.Update(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.record(ctx, actor, "class.updated", class.ID, map[string]interface{}{
		"name": class.Name,
	})

	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	s.record(ctx, actor, "class.deleted", id, nil)
	return nil
}

func (s *classService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "class",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("class_id", entityID).Msg("failed to record class activity")
	}
}
