package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

// DataProtectionService serves subject-access requests: a full export of the
// data held about one student, and irreversible anonymization of that data.
type DataProtectionService interface {
	Export(ctx context.Context, studentID uint, actor ActivityActor) (dto.StudentDataExport, error)
	Anonymize(ctx context.Context, studentID uint, actor ActivityActor) (dto.AnonymizeResult, error)
}

type dataProtectionService struct {
	students      repository.StudentRepository
	enrollments   repository.EnrollmentRepository
	submissions   repository.SubmissionRepository
	notifications repository.NotificationRepository
	trail         repository.ActivityLogRepository
	activity      ActivityRecorder
	logger        zerolog.Logger
	now           func() time.Time
}

// NewDataProtectionService constructs the data protection service.
func NewDataProtectionService(
	students repository.StudentRepository,
	enrollments repository.EnrollmentRepository,
	submissions repository.SubmissionRepository,
	notifications repository.NotificationRepository,
	trail repository.ActivityLogRepository,
	activity ActivityRecorder,
	logger zerolog.Logger,
) DataProtectionService {
	return &dataProtectionService{
		students:      students,
		enrollments:   enrollments,
		submissions:   submissions,
		notifications: notifications,
		trail:         trail,
		activity:      activity,
		logger:        logger.With().Str("component", "dataprotection_service").Logger(),
		now:           time.Now,
	}
}

// Export assembles everything the platform stores about one student into a
// single document: profile, enrollments, submissions with grades and
// feedback, notifications sent to their account, and audit trail references.
func (s *dataProtectionService) Export(ctx context.Context, studentID uint, actor ActivityActor) (dto.StudentDataExport, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDataExport{}, ErrStudentNotFound
		}
		return dto.StudentDataExport{}, err
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDataExport{}, err
	}

	submissions, _, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDataExport{}, err
	}

	var notifications []models.Notification
	if student.UserID != nil {
		notifications, err = s.collectNotifications(ctx, *student.UserID)
		if err != nil {
			return dto.StudentDataExport{}, err
		}
	}

	trail, err := s.trail.ListByEntity(ctx, "student", studentID)
	if err != nil {
		return dto.StudentDataExport{}, err
	}

	export := dto.StudentDataExport{
		GeneratedAt:   s.now().UTC(),
		Student:       dto.NewStudentResponse(student),
		Enrollments:   dto.NewEnrollmentResponseSlice(enrollments),
		Submissions:   dto.NewSubmissionResponseSlice(submissions),
		Notifications: dto.NewNotificationResponseSlice(notifications),
		Activity:      dto.NewActivityResponseSlice(trail),
	}

	s.record(ctx, actor, "student.exported", studentID, map[string]interface{}{
		"enrollments":   len(export.Enrollments),
		"submissions":   len(export.Submissions),
		"notifications": len(export.Notifications),
	})

	return export, nil
}

// collectNotifications pages through the notification history so the export
// is complete rather than capped at one page.
func (s *dataProtectionService) collectNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	const pageSize = 100

	var all []models.Notification
	offset := 0
	for {
		page, err := s.notifications.ListByUser(ctx, userID, false, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

// Anonymize scrubs the personally identifying fields of a student record and
// the free text of every submission they authored, then marks the record
// anonymized and inactive. Grades, points and aggregate history are kept. The
// operation cannot be undone.
func (s *dataProtectionService) Anonymize(ctx context.Context, studentID uint, actor ActivityActor) (dto.AnonymizeResult, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnonymizeResult{}, ErrStudentNotFound
		}
		return dto.AnonymizeResult{}, err
	}

	scrubbed := []string{"name", "email", "guardian_name", "guardian_email"}
	updates := map[string]interface{}{
		"name":           "Redacted Student",
		"email":          fmt.Sprintf("redacted-%d@anonymized.invalid", studentID),
		"guardian_name":  "",
		"guardian_email": "",
		"status":         models.StudentStatusInactive,
		"anonymized":     true,
	}

	if _, err := s.students.Update(ctx, studentID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnonymizeResult{}, ErrStudentNotFound
		}
		return dto.AnonymizeResult{}, err
	}

	submissionsScrubbed, err := s.submissions.ScrubByStudent(ctx, studentID)
	if err != nil {
		return dto.AnonymizeResult{}, err
	}

	s.logger.Info().
		Uint("student_id", studentID).
		Int64("submissions_scrubbed", submissionsScrubbed).
		Msg("student record anonymized")

	s.record(ctx, actor, "student.anonymized", studentID, map[string]interface{}{
		"submissions_scrubbed": submissionsScrubbed,
	})

	return dto.AnonymizeResult{
		StudentID:           studentID,
		ScrubbedFields:      scrubbed,
		SubmissionsScrubbed: int(submissionsScrubbed),
		AnonymizedAt:        s.now().UTC(),
	}, nil
}

func (s *dataProtectionService) record(ctx context.Context, actor ActivityActor, action string, studentID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := studentID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to record data protection activity")
	}
}
