package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

type enrollmentRepoStub struct {
	byClass map[uint][]models.Enrollment
}

func (r *enrollmentRepoStub) ListByClass(ctx context.Context, classID uint) ([]models.Enrollment, error) {
	return r.byClass[classID], nil
}

func (r *enrollmentRepoStub) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	for _, classEnrollments := range r.byClass {
		for _, enrollment := range classEnrollments {
			if enrollment.StudentID == studentID {
				enrollments = append(enrollments, enrollment)
			}
		}
	}
	return enrollments, nil
}

func (r *enrollmentRepoStub) CountByClass(ctx context.Context, classID uint) (int64, error) {
	return int64(len(r.byClass[classID])), nil
}

func (r *enrollmentRepoStub) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.byClass[enrollment.ClassID] = append(r.byClass[enrollment.ClassID], *enrollment)
	return nil
}

func (r *enrollmentRepoStub) Delete(ctx context.Context, classID, studentID uint) error {
	kept := r.byClass[classID][:0]
	for _, enrollment := range r.byClass[classID] {
		if enrollment.StudentID != studentID {
			kept = append(kept, enrollment)
		}
	}
	r.byClass[classID] = kept
	return nil
}

func newAssignmentFixture(t *testing.T) (*assignmentRepoStub, *submissionRepoStub, *enrollmentRepoStub, *recorderStub, *assignmentService) {
	t.Helper()

	repo := &assignmentRepoStub{byID: make(map[uint]models.Assignment)}
	submissions := newSubmissionRepoStub()
	enrollments := &enrollmentRepoStub{byClass: make(map[uint][]models.Enrollment)}
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewAssignmentService(repo, submissions, enrollments, validate, recorder, testLogger()).(*assignmentService)
	return repo, submissions, enrollments, recorder, svc
}

func enrollStudents(enrollments *enrollmentRepoStub, classID uint, count int) {
	for i := 0; i < count; i++ {
		enrollments.byClass[classID] = append(enrollments.byClass[classID], models.Enrollment{
			ClassID:   classID,
			StudentID: uint(100 + i),
		})
	}
}

func TestAssignmentCreateRecordsActivity(t *testing.T) {
	repo, _, _, recorder, svc := newAssignmentFixture(t)

	due := time.Now().Add(7 * 24 * time.Hour)
	result, err := svc.Create(context.Background(), 4, dto.AssignmentCreateRequest{
		Title:     "  Fractions worksheet ",
		ClassID:   1,
		SubjectID: 2,
		Type:      "quiz",
		MaxPoints: 20,
		DueDate:   due,
	}, ActivityActor{ID: 4, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "Fractions worksheet", result.Title)
	require.Equal(t, "quiz", result.Type)
	require.Equal(t, uint(4), result.TeacherID)
	require.False(t, result.IsPublished)

	require.Len(t, repo.byID, 1)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "assignment.created", recorder.entries[0].Action)
}

func TestAssignmentCreateRejectsInvertedWindow(t *testing.T) {
	repo, _, _, _, svc := newAssignmentFixture(t)

	due := time.Now().Add(24 * time.Hour)
	from := due.Add(time.Hour)
	_, err := svc.Create(context.Background(), 4, dto.AssignmentCreateRequest{
		Title:         "Essay",
		ClassID:       1,
		SubjectID:     2,
		MaxPoints:     100,
		DueDate:       due,
		AvailableFrom: &from,
	}, ActivityActor{ID: 4, Role: "teacher"})
	require.ErrorIs(t, err, models.ErrAssignmentWindow)
	require.Empty(t, repo.byID)
}

func TestAssignmentUpdateMovedDueDateRecomputesLateness(t *testing.T) {
	repo, submissions, _, _, svc := newAssignmentFixture(t)

	oldDue := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	newDue := oldDue.Add(48 * time.Hour)
	repo.byID[5] = models.Assignment{ID: 5, Title: "Essay", ClassID: 1, SubjectID: 2, TeacherID: 4, MaxPoints: 100, DueDate: oldDue}

	submittedAt := oldDue.Add(time.Hour)
	submissions.put(models.Submission{ID: 9, AssignmentID: 5, StudentID: 30, Status: models.SubmissionStatusSubmitted, SubmittedAt: &submittedAt, IsLate: true})

	_, err := svc.Update(context.Background(), 5, dto.AssignmentUpdateRequest{DueDate: &newDue}, ActivityActor{ID: 4, Role: "teacher"})
	require.NoError(t, err)
	require.False(t, submissions.byID[9].IsLate)
}

func TestAssignmentPublishRoundTrip(t *testing.T) {
	repo, _, _, recorder, svc := newAssignmentFixture(t)
	repo.byID[5] = models.Assignment{ID: 5, Title: "Essay", ClassID: 1, SubjectID: 2, MaxPoints: 100, DueDate: time.Now().Add(time.Hour)}

	published, err := svc.Publish(context.Background(), 5, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.True(t, published.IsPublished)

	unpublished, err := svc.Unpublish(context.Background(), 5, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.False(t, unpublished.IsPublished)

	require.Len(t, recorder.entries, 2)
	require.Equal(t, "assignment.published", recorder.entries[0].Action)
	require.Equal(t, "assignment.unpublished", recorder.entries[1].Action)
}

func TestAssignmentStatsAggregates(t *testing.T) {
	repo, submissions, enrollments, _, svc := newAssignmentFixture(t)

	due := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	repo.byID[5] = models.Assignment{ID: 5, ClassID: 1, SubjectID: 2, MaxPoints: 100, DueDate: due}
	enrollStudents(enrollments, 1, 5)

	onTime := due.Add(-time.Hour)
	late := due.Add(26 * time.Hour)
	gradeA := 90.0
	gradeC := 70.0
	submissions.put(models.Submission{ID: 1, AssignmentID: 5, StudentID: 100, Status: models.SubmissionStatusGraded, SubmittedAt: &onTime, Grade: &gradeA})
	submissions.put(models.Submission{ID: 2, AssignmentID: 5, StudentID: 101, Status: models.SubmissionStatusReturned, SubmittedAt: &late, IsLate: true, Grade: &gradeC})
	submissions.put(models.Submission{ID: 3, AssignmentID: 5, StudentID: 102, Status: models.SubmissionStatusSubmitted, SubmittedAt: &onTime})
	submissions.put(models.Submission{ID: 4, AssignmentID: 5, StudentID: 103, Status: models.SubmissionStatusDraft})

	stats, err := svc.Stats(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.TotalStudents)
	require.Equal(t, int64(3), stats.SubmittedCount)
	require.Equal(t, int64(2), stats.GradedCount)
	require.Equal(t, int64(1), stats.LateCount)
	require.Equal(t, 60.0, stats.SubmissionRate)
	require.Equal(t, 66.67, stats.GradingProgress)
	require.NotNil(t, stats.AverageGrade)
	require.Equal(t, 80.0, *stats.AverageGrade)
}

func TestAssignmentStatsEmptyDenominators(t *testing.T) {
	repo, _, _, _, svc := newAssignmentFixture(t)
	repo.byID[5] = models.Assignment{ID: 5, ClassID: 1, SubjectID: 2, MaxPoints: 100, DueDate: time.Now()}

	stats, err := svc.Stats(context.Background(), 5)
	require.NoError(t, err)
	require.Zero(t, stats.SubmissionRate)
	require.Zero(t, stats.GradingProgress)
	require.Nil(t, stats.AverageGrade)
}

func TestAssignmentStatsUnknownAssignment(t *testing.T) {
	_, _, _, _, svc := newAssignmentFixture(t)

	_, err := svc.Stats(context.Background(), 404)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentGetUnknown(t *testing.T) {
	_, _, _, _, svc := newAssignmentFixture(t)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentDeleteRecordsActivity(t *testing.T) {
	repo, _, _, recorder, svc := newAssignmentFixture(t)
	repo.byID[5] = models.Assignment{ID: 5, ClassID: 1, SubjectID: 2, MaxPoints: 100, DueDate: time.Now()}

	require.NoError(t, svc.Delete(context.Background(), 5, ActivityActor{ID: 1, Role: "admin"}))
	require.Empty(t, repo.byID)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "assignment.deleted", recorder.entries[0].Action)
}

var _ repository.EnrollmentRepository = (*enrollmentRepoStub)(nil)
