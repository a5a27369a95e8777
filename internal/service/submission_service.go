package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/observability"
	"github.com/skolahub/skola-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates the submission was not located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAssignmentNotAvailable indicates the assignment cannot be opened right now.
	ErrAssignmentNotAvailable = errors.New("assignment is not available")
	// ErrLateNotAllowed indicates the due date has passed and the assignment
	// does not accept late work.
	ErrLateNotAllowed = errors.New("late submissions are not accepted for this assignment")
	// ErrSubmissionConflict indicates a concurrent request changed the
	// submission status first.
	ErrSubmissionConflict = errors.New("submission was updated concurrently")
)

// SubmissionService drives the submission lifecycle from draft to returned.
type SubmissionService interface {
	Start(ctx context.Context, studentID uint, req dto.SubmissionStartRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, id, studentID uint, req dto.SubmissionSubmitRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, id uint, req dto.SubmissionGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	Return(ctx context.Context, id uint, actor ActivityActor) (dto.SubmissionResponse, error)
	RecomputeLateness(ctx context.Context, assignmentID uint) (int64, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, req dto.SubmissionListRequest) (dto.SubmissionListResponse, error)
}

type submissionService struct {
	repo        repository.SubmissionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	notifier    Notifier
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs the submission lifecycle service.
func NewSubmissionService(repo repository.SubmissionRepository, assignments repository.AssignmentRepository, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		repo:        repo,
		assignments: assignments,
		validator:   validate,
		activity:    activity,
		notifier:    notifier,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/skolahub/skola-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Start opens a draft for the student on the assignment, or resumes the one
// that already exists. The assignment must be published and inside its
// availability window.
func (s *submissionService) Start(ctx context.Context, studentID uint, req dto.SubmissionStartRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	if !assignment.IsAvailable(now) {
		return dto.SubmissionResponse{}, ErrAssignmentNotAvailable
	}
	if assignment.IsOverdue(now) && !assignment.CanSubmitLate(now) {
		return dto.SubmissionResponse{}, ErrLateNotAllowed
	}

	existing, err := s.repo.GetByAssignmentAndStudent(ctx, req.AssignmentID, studentID)
	if err == nil {
		if existing.Status != models.SubmissionStatusDraft {
			return dto.NewSubmissionResponse(existing), nil
		}
		existing.Content = req.Content
		existing.Attachments = req.Attachments
		if err := s.repo.Update(ctx, &existing); err != nil {
			return dto.SubmissionResponse{}, err
		}
		return dto.NewSubmissionResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: req.AssignmentID,
		StudentID:    studentID,
		Content:      req.Content,
		Attachments:  req.Attachments,
		Status:       models.SubmissionStatusDraft,
	}
	if err := s.repo.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.repo.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(created), nil
}

// Submit hands a draft in. Content may be replaced in the same move. Work
// arriving after the due date is refused unless the assignment accepts late
// submissions; accepted late work is flagged.
func (s *submissionService) Submit(ctx context.Context, id, studentID uint, req dto.SubmissionSubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	submission, err := s.repo.Transition(ctx, id, func(target *models.Submission) error {
		if studentID != 0 && target.StudentID != studentID {
			return gorm.ErrRecordNotFound
		}
		if !target.Assignment.IsAvailable(now) {
			return ErrAssignmentNotAvailable
		}
		if target.Assignment.IsOverdue(now) && !target.Assignment.CanSubmitLate(now) {
			return ErrLateNotAllowed
		}
		if req.Content != nil {
			target.Content = *req.Content
		}
		if req.Attachments != nil {
			target.Attachments = req.Attachments
		}
		return target.Submit(now, target.Assignment.DueDate)
	})
	if err != nil {
		return dto.SubmissionResponse{}, s.mapTransitionError(err)
	}

	observability.SubmissionTransitions().WithLabelValues("submit").Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", submission.AssignmentID).
		Bool("is_late", submission.IsLate).
		Msg("submission handed in")

	return dto.NewSubmissionResponse(submission), nil
}

// Grade evaluates submitted work. The raw score is clamped to the grading
// scale, the late penalty is applied to the stored points, and the student is
// notified once the write has committed.
func (s *submissionService) Grade(ctx context.Context, id uint, req dto.SubmissionGradeRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.update")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(id)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	feedback := strings.TrimSpace(req.Feedback)
	var graderID *uint
	if actor.ID != 0 {
		grader := actor.ID
		graderID = &grader
	}

	gradedAt := s.now()
	submission, err := s.repo.Transition(ctx, id, func(target *models.Submission) error {
		return target.ApplyGrade(*req.Score, feedback, graderID, gradedAt, target.Assignment.LatePenaltyPercent)
	})
	if err != nil {
		mapped := s.mapTransitionError(err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, "grade_transition_failed")
		return dto.SubmissionResponse{}, mapped
	}

	observability.SubmissionTransitions().WithLabelValues("grade").Inc()
	span.SetAttributes(
		attribute.Float64("grading.score", *submission.Grade),
		attribute.String("grading.status", string(submission.Status)),
	)

	s.recordActivity(ctx, actor, "submission.graded", submission, map[string]interface{}{
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
		"score":         *submission.Grade,
	})
	s.notifyStudent(ctx, submission, "submission_graded", "Your submission for \""+submission.Assignment.Title+"\" has been graded.")

	return dto.NewSubmissionResponse(submission), nil
}

// Return releases graded work back to the student.
func (s *submissionService) Return(ctx context.Context, id uint, actor ActivityActor) (dto.SubmissionResponse, error) {
	submission, err := s.repo.Transition(ctx, id, func(target *models.Submission) error {
		return target.ReturnToStudent()
	})
	if err != nil {
		return dto.SubmissionResponse{}, s.mapTransitionError(err)
	}

	observability.SubmissionTransitions().WithLabelValues("return").Inc()

	s.recordActivity(ctx, actor, "submission.returned", submission, map[string]interface{}{
		"assignment_id": submission.AssignmentID,
		"student_id":    submission.StudentID,
	})
	s.notifyStudent(ctx, submission, "submission_returned", "Your graded submission for \""+submission.Assignment.Title+"\" has been returned.")

	return dto.NewSubmissionResponse(submission), nil
}

// RecomputeLateness re-derives the lateness flags for every handed-in
// submission of the assignment against its current due date. Grades and
// points already stored are left as they were issued.
func (s *submissionService) RecomputeLateness(ctx context.Context, assignmentID uint) (int64, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAssignmentNotFound
		}
		return 0, err
	}

	affected, err := s.repo.RecomputeLateness(ctx, assignmentID, assignment.DueDate)
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int64("submissions", affected).
		Msg("recomputed submission lateness")

	return affected, nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, req dto.SubmissionListRequest) (dto.SubmissionListResponse, error) {
	filter := repository.SubmissionFilter{
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status := models.SubmissionStatus(strings.ToLower(trimmed))
		filter.Status = &status
	}

	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.SubmissionListResponse{
		Items:      dto.NewSubmissionResponseSlice(submissions),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *submissionService) mapTransitionError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrSubmissionNotFound
	case errors.Is(err, repository.ErrTransitionConflict):
		return ErrSubmissionConflict
	default:
		return err
	}
}

func (s *submissionService) recordActivity(ctx context.Context, actor ActivityActor, action string, submission models.Submission, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record submission activity")
	}
}

func (s *submissionService) notifyStudent(ctx context.Context, submission models.Submission, kind, message string) {
	if s.notifier == nil || submission.Student.UserID == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, *submission.Student.UserID, kind, message); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to notify student")
	}
}
