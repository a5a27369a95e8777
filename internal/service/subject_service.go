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

var (
	// ErrSubjectNotFound indicates the subject was not located.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrSubjectCodeTaken indicates the code is already registered.
	ErrSubjectCodeTaken = errors.New("subject code already in use")
)

// SubjectService orchestrates subject management.
type SubjectService interface {
	List(ctx context.Context, search string, teacherID *uint, page, pageSize int) (dto.SubjectListResponse, error)
	Get(ctx context.Context, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, req dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error)
	Update(ctx context.Context, id uint, req dto.SubjectUpdateRequest, actor ActivityActor) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type subjectService struct {
	repo      repository.SubjectRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo repository.SubjectRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SubjectService {
	return &subjectService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context, search string, teacherID *uint, page, pageSize int) (dto.SubjectListResponse, error) {
	subjects, total, err := s.repo.List(ctx, repository.SubjectFilter{
		Search:    strings.TrimSpace(search),
		TeacherID: teacherID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.SubjectListResponse{}, err
	}

	return dto.SubjectListResponse{
		Items:      dto.NewSubjectResponseSlice(subjects),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (dto.SubjectResponse, error) {
	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Create(ctx context.Context, req dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubjectResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return dto.SubjectResponse{}, ErrSubjectCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		TeacherID:   req.TeacherID,
	}

	if err := s.repo.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.record(ctx, actor, "subject.created", subject.ID, map[string]interface{}{
		"code": subject.Code,
	})

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, id uint, req dto.SubjectUpdateRequest, actor ActivityActor) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, err
	}

	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		subject.Description = *req.Description
	}
	if req.TeacherID != nil {
		subject.TeacherID = req.TeacherID
	}

	if err := s.repo.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.record(ctx, actor, "subject.updated", subject.ID, map[string]interface{}{
		"code": subject.Code,
	})

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	s.record(ctx, actor, "subject.deleted", id, nil)
	return nil
}

func (s *subjectService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "subject",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("subject_id", entityID).Msg("failed to record subject activity")
	}
}
