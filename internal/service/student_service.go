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
	// ErrStudentNotFound indicates the student was not located.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentEmailTaken indicates the email already belongs to a student.
	ErrStudentEmailTaken = errors.New("student email already registered")
)

// StudentService orchestrates student profile management.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	GetByUserID(ctx context.Context, userID uint) (dto.StudentResponse, error)
	Create(ctx context.Context, req dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, req dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	filter := repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		ClassID:  req.ClassID,
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	return dto.StudentListResponse{
		Items:      dto.NewStudentResponseSlice(students),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) GetByUserID(ctx context.Context, userID uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		ClassID:       req.ClassID,
		Status:        models.StudentStatusActive,
		GuardianName:  strings.TrimSpace(req.GuardianName),
		GuardianEmail: strings.ToLower(strings.TrimSpace(req.GuardianEmail)),
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
		return dto.StudentResponse{}, err
	}

	s.record(ctx, actor, "student.created", student.ID, map[string]interface{}{
		"student_number": student.StudentNumber,
	})

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id uint, req dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
		changedFields = append(changedFields, "name")
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
		changedFields = append(changedFields, "email")
	}
	if req.ClassID != nil {
		updates["class_id"] = *req.ClassID
		changedFields = append(changedFields, "class_id")
	}
	if req.Status != nil {
		updates["status"] = strings.ToLower(strings.TrimSpace(*req.Status))
		changedFields = append(changedFields, "status")
	}
	if req.GuardianName != nil {
		updates["guardian_name"] = strings.TrimSpace(*req.GuardianName)
		changedFields = append(changedFields, "guardian_name")
	}
	if req.GuardianEmail != nil {
		updates["guardian_email"] = strings.ToLower(strings.TrimSpace(*req.GuardianEmail))
		changedFields = append(changedFields, "guardian_email")
	}

	if len(updates) == 0 {
		return s.Get(ctx, id)
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	s.record(ctx, actor, "student.updated", id, map[string]interface{}{
		"fields": changedFields,
	})

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.record(ctx, actor, "student.deleted", id, nil)
	return nil
}

func (s *studentService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", entityID).Msg("failed to record student activity")
	}
}
