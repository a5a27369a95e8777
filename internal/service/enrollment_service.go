package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

var (
	// ErrEnrollmentNotFound indicates the membership record was not located.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled indicates the student already belongs to the class.
	ErrAlreadyEnrolled = errors.New("student already enrolled in class")
)

// EnrollmentService manages class membership.
type EnrollmentService interface {
	Enroll(ctx context.Context, req dto.EnrollmentRequest, actor ActivityActor) (dto.EnrollmentResponse, error)
	Withdraw(ctx context.Context, classID, studentID uint, actor ActivityActor) error
	ListByClass(ctx context.Context, classID uint) ([]dto.EnrollmentResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	classes   repository.ClassRepository
	students  repository.StudentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo repository.EnrollmentRepository, classes repository.ClassRepository, students repository.StudentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		classes:   classes,
		students:  students,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
		now:       time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, req dto.EnrollmentRequest, actor ActivityActor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.classes.GetByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrClassNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if _, err := s.students.GetByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrStudentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		ClassID:    req.ClassID,
		StudentID:  req.StudentID,
		EnrolledAt: s.now(),
	}

	if err := s.repo.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}

	s.record(ctx, actor, "enrollment.created", enrollment.ID, map[string]interface{}{
		"class_id":   enrollment.ClassID,
		"student_id": enrollment.StudentID,
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Withdraw(ctx context.Context, classID, studentID uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, classID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.record(ctx, actor, "enrollment.withdrawn", 0, map[string]interface{}{
		"class_id":   classID,
		"student_id": studentID,
	})

	return nil
}

func (s *enrollmentService) ListByClass(ctx context.Context, classID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	entry := ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "enrollment",
		Metadata:   metadata,
	}
	if entityID != 0 {
		id := entityID
		entry.EntityID = &id
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record enrollment activity")
	}
}
