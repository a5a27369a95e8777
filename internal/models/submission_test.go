package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLetterGradeScale(t *testing.T) {
	cases := []struct {
		grade  float64
		letter string
	}{
		{95, "A"},
		{90, "A"},
		{85, "B"},
		{80, "B"},
		{75, "C"},
		{70, "C"},
		{65, "D"},
		{60, "D"},
		{59.99, "F"},
		{55, "F"},
		{0, "F"},
	}

	for _, tc := range cases {
		grade := tc.grade
		submission := Submission{Grade: &grade}
		letter := submission.LetterGrade()
		require.NotNil(t, letter)
		require.Equal(t, tc.letter, *letter, "grade %.2f", tc.grade)
	}
}

func TestLetterGradeNilWhenUngraded(t *testing.T) {
	require.Nil(t, Submission{}.LetterGrade())
}

func TestClampGradeBounds(t *testing.T) {
	require.Equal(t, 100.0, ClampGrade(150))
	require.Equal(t, 0.0, ClampGrade(-10))
	require.Equal(t, 87.5, ClampGrade(87.5))
}

func TestCalculatePointsEarnedOnTime(t *testing.T) {
	// Points mirror the percentage grade directly; the assignment's max
	// points never rescale them.
	require.Equal(t, 80, CalculatePointsEarned(80, false, 10))
	require.Equal(t, 100, CalculatePointsEarned(100, false, 50))
}

func TestCalculatePointsEarnedLatePenalty(t *testing.T) {
	require.Equal(t, 72, CalculatePointsEarned(80, true, 10))
	require.Equal(t, 45, CalculatePointsEarned(90, true, 50))
}

func TestCalculatePointsEarnedFlooredAtZero(t *testing.T) {
	require.Equal(t, 0, CalculatePointsEarned(50, true, 150))
}

func TestSubmitStampsLateness(t *testing.T) {
	due := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)

	onTime := Submission{Status: SubmissionStatusDraft}
	require.NoError(t, onTime.Submit(due.Add(-time.Hour), due))
	require.Equal(t, SubmissionStatusSubmitted, onTime.Status)
	require.False(t, onTime.IsLate)
	require.NotNil(t, onTime.SubmittedAt)

	late := Submission{Status: SubmissionStatusDraft}
	require.NoError(t, late.Submit(due.Add(time.Minute), due))
	require.True(t, late.IsLate)
}

func TestSubmitRequiresDraft(t *testing.T) {
	due := time.Now()
	for _, status := range []SubmissionStatus{SubmissionStatusSubmitted, SubmissionStatusGraded, SubmissionStatusReturned} {
		submission := Submission{ID: 7, Status: status}
		err := submission.Submit(due, due)
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.Equal(t, status, submission.Status)
		require.Nil(t, submission.SubmittedAt)
	}
}

func TestApplyGradeRequiresSubmitted(t *testing.T) {
	for _, status := range []SubmissionStatus{SubmissionStatusDraft, SubmissionStatusGraded, SubmissionStatusReturned} {
		submission := Submission{ID: 3, Status: status}
		err := submission.ApplyGrade(90, "", nil, time.Now(), 0)
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.Nil(t, submission.Grade)
	}
}

func TestApplyGradeClampsAndScores(t *testing.T) {
	grader := uint(9)
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	submission := Submission{Status: SubmissionStatusSubmitted}
	require.NoError(t, submission.ApplyGrade(150, "solid work", &grader, at, 0))

	require.Equal(t, SubmissionStatusGraded, submission.Status)
	require.Equal(t, 100.0, *submission.Grade)
	require.Equal(t, 100, *submission.PointsEarned)
	require.Equal(t, "solid work", submission.Feedback)
	require.Equal(t, grader, *submission.GradedBy)
	require.Equal(t, at, *submission.GradedAt)
}

func TestApplyGradeLateWorkPenalized(t *testing.T) {
	submission := Submission{Status: SubmissionStatusSubmitted, IsLate: true}
	require.NoError(t, submission.ApplyGrade(80, "", nil, time.Now(), 10))

	require.Equal(t, 80.0, *submission.Grade)
	require.Equal(t, 72, *submission.PointsEarned)
}

func TestReturnToStudentRequiresGraded(t *testing.T) {
	graded := Submission{Status: SubmissionStatusGraded}
	require.NoError(t, graded.ReturnToStudent())
	require.Equal(t, SubmissionStatusReturned, graded.Status)

	for _, status := range []SubmissionStatus{SubmissionStatusDraft, SubmissionStatusSubmitted, SubmissionStatusReturned} {
		submission := Submission{Status: status}
		require.ErrorIs(t, submission.ReturnToStudent(), ErrInvalidTransition)
	}
}

func TestDaysLateTruncatesWholeDays(t *testing.T) {
	due := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)

	cases := []struct {
		after time.Duration
		days  int
	}{
		{23 * time.Hour, 0},
		{24 * time.Hour, 1},
		{36 * time.Hour, 1},
		{49 * time.Hour, 2},
	}

	for _, tc := range cases {
		at := due.Add(tc.after)
		submission := Submission{
			SubmittedAt: &at,
			IsLate:      true,
			Assignment:  Assignment{DueDate: due},
		}
		require.Equal(t, tc.days, submission.DaysLate(), "%s past due", tc.after)
	}
}

func TestDaysLateZeroForOnTimeWork(t *testing.T) {
	due := time.Now()
	at := due.Add(-time.Hour)
	submission := Submission{SubmittedAt: &at, Assignment: Assignment{DueDate: due}}
	require.Zero(t, submission.DaysLate())

	require.Zero(t, Submission{IsLate: true, Assignment: Assignment{DueDate: due}}.DaysLate())
}

func TestRecomputeLateness(t *testing.T) {
	due := time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)
	at := due.Add(time.Hour)

	submission := Submission{SubmittedAt: &at, IsLate: true}
	submission.RecomputeLateness(due.Add(2 * time.Hour))
	require.False(t, submission.IsLate)

	submission.RecomputeLateness(due)
	require.True(t, submission.IsLate)

	draft := Submission{IsLate: true}
	draft.RecomputeLateness(due)
	require.False(t, draft.IsLate)
}
