package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

// ErrAssignmentNotFound indicates the assignment was not located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentService manages assignment metadata, publication and statistics.
type AssignmentService interface {
	Create(ctx context.Context, teacherID uint, req dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, req dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Publish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error)
	Unpublish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	List(ctx context.Context, req dto.AssignmentListRequest) (dto.AssignmentListResponse, error)
	Stats(ctx context.Context, id uint) (dto.SubmissionStatsResponse, error)
}

type assignmentService struct {
	repo        repository.AssignmentRepository
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, submissions repository.SubmissionRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:        repo,
		submissions: submissions,
		enrollments: enrollments,
		validator:   validate,
		activity:    activity,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, req dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		Instructions:        req.Instructions,
		ClassID:             req.ClassID,
		SubjectID:           req.SubjectID,
		TeacherID:           teacherID,
		Type:                models.NormalizeAssignmentType(req.Type),
		MaxPoints:           req.MaxPoints,
		DueDate:             req.DueDate,
		AvailableFrom:       req.AvailableFrom,
		AvailableUntil:      req.AvailableUntil,
		AllowLateSubmission: req.AllowLateSubmission,
		LatePenaltyPercent:  req.LatePenaltyPercent,
		Attachments:         req.Attachments,
	}
	if err := assignment.ValidateWindow(); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.record(ctx, actor, "assignment.created", assignment.ID, map[string]interface{}{
		"title":    assignment.Title,
		"class_id": assignment.ClassID,
	})

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, req dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	dueDateChanged := false
	if req.Title != nil {
		assignment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.Instructions != nil {
		assignment.Instructions = *req.Instructions
	}
	if req.Type != nil {
		assignment.Type = models.NormalizeAssignmentType(*req.Type)
	}
	if req.MaxPoints != nil {
		assignment.MaxPoints = *req.MaxPoints
	}
	if req.DueDate != nil && !req.DueDate.Equal(assignment.DueDate) {
		assignment.DueDate = *req.DueDate
		dueDateChanged = true
	}
	if req.AvailableFrom != nil {
		assignment.AvailableFrom = req.AvailableFrom
	}
	if req.AvailableUntil != nil {
		assignment.AvailableUntil = req.AvailableUntil
	}
	if req.AllowLateSubmission != nil {
		assignment.AllowLateSubmission = *req.AllowLateSubmission
	}
	if req.LatePenaltyPercent != nil {
		assignment.LatePenaltyPercent = *req.LatePenaltyPercent
	}
	if req.Attachments != nil {
		assignment.Attachments = req.Attachments
	}

	if err := assignment.ValidateWindow(); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	// A moved due date changes which handed-in work counts as late.
	if dueDateChanged {
		if affected, err := s.submissions.RecomputeLateness(ctx, assignment.ID, assignment.DueDate); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to recompute submission lateness")
		} else if affected > 0 {
			s.logger.Info().
				Uint("assignment_id", assignment.ID).
				Int64("submissions", affected).
				Msg("recomputed lateness after due date change")
		}
	}

	s.record(ctx, actor, "assignment.updated", assignment.ID, map[string]interface{}{
		"title": assignment.Title,
	})

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Publish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	return s.setPublished(ctx, id, true, "assignment.published", actor)
}

func (s *assignmentService) Unpublish(ctx context.Context, id uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	return s.setPublished(ctx, id, false, "assignment.unpublished", actor)
}

func (s *assignmentService) setPublished(ctx context.Context, id uint, published bool, action string, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.record(ctx, actor, action, assignment.ID, map[string]interface{}{
		"title": assignment.Title,
	})

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.record(ctx, actor, "assignment.deleted", id, nil)
	return nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, s.now()), nil
}

func (s *assignmentService) List(ctx context.Context, req dto.AssignmentListRequest) (dto.AssignmentListResponse, error) {
	filter := repository.AssignmentFilter{
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		Published: req.Published,
		DueAfter:  req.DueAfter,
		DueBefore: req.DueBefore,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if trimmed := strings.TrimSpace(req.Type); trimmed != "" {
		kind := models.NormalizeAssignmentType(trimmed)
		filter.Type = &kind
	}

	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{
		Items:      dto.NewAssignmentResponseSlice(assignments, s.now()),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// Stats aggregates submission progress for one assignment. Rates are rounded
// to two decimals and report zero when their denominator is zero.
func (s *assignmentService) Stats(ctx context.Context, id uint) (dto.SubmissionStatsResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionStatsResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionStatsResponse{}, err
	}

	totalStudents, err := s.enrollments.CountByClass(ctx, assignment.ClassID)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, id)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	stats := dto.SubmissionStatsResponse{
		AssignmentID:  id,
		TotalStudents: totalStudents,
	}

	gradeSum := 0.0
	gradeCount := 0
	for _, submission := range submissions {
		if submission.Status != models.SubmissionStatusDraft {
			stats.SubmittedCount++
		}
		if submission.IsGraded() {
			stats.GradedCount++
		}
		if submission.IsLate {
			stats.LateCount++
		}
		if submission.Grade != nil {
			gradeSum += *submission.Grade
			gradeCount++
		}
	}

	stats.SubmissionRate = ratio(stats.SubmittedCount, totalStudents)
	stats.GradingProgress = ratio(stats.GradedCount, stats.SubmittedCount)
	if gradeCount > 0 {
		average := roundTwo(gradeSum / float64(gradeCount))
		stats.AverageGrade = &average
	}

	return stats, nil
}

func (s *assignmentService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assignment",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", entityID).Msg("failed to record assignment activity")
	}
}

// ratio returns numerator over denominator as a percentage rounded to two
// decimals, zero when the denominator is zero.
func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return roundTwo(float64(numerator) / float64(denominator) * 100)
}

func roundTwo(value float64) float64 {
	return math.Round(value*100) / 100
}
