package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsAvailableWindowGating(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	from := now.Add(-time.Hour)
	until := now.Add(time.Hour)

	require.False(t, Assignment{IsPublished: false}.IsAvailable(now))
	require.True(t, Assignment{IsPublished: true}.IsAvailable(now))
	require.True(t, Assignment{IsPublished: true, AvailableFrom: &from, AvailableUntil: &until}.IsAvailable(now))
	require.False(t, Assignment{IsPublished: true, AvailableFrom: &until}.IsAvailable(now))
	require.False(t, Assignment{IsPublished: true, AvailableUntil: &from}.IsAvailable(now))
}

func TestCanSubmitLateCompound(t *testing.T) {
	due := time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)
	afterDue := due.Add(time.Hour)
	windowClose := due.Add(2 * time.Hour)

	// Late acceptance needs the flag, a passed due date, and an open window.
	require.True(t, Assignment{AllowLateSubmission: true, DueDate: due}.CanSubmitLate(afterDue))
	require.True(t, Assignment{AllowLateSubmission: true, DueDate: due, AvailableUntil: &windowClose}.CanSubmitLate(afterDue))

	require.False(t, Assignment{AllowLateSubmission: false, DueDate: due}.CanSubmitLate(afterDue))
	require.False(t, Assignment{AllowLateSubmission: true, DueDate: due}.CanSubmitLate(due.Add(-time.Minute)))
	require.False(t, Assignment{AllowLateSubmission: true, DueDate: due, AvailableUntil: &windowClose}.CanSubmitLate(windowClose.Add(time.Minute)))
}

func TestValidateWindowBracketsDueDate(t *testing.T) {
	due := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	before := due.Add(-24 * time.Hour)
	after := due.Add(24 * time.Hour)

	require.NoError(t, Assignment{DueDate: due}.ValidateWindow())
	require.NoError(t, Assignment{DueDate: due, AvailableFrom: &before, AvailableUntil: &after}.ValidateWindow())

	require.ErrorIs(t, Assignment{DueDate: due, AvailableFrom: &after}.ValidateWindow(), ErrAssignmentWindow)
	require.ErrorIs(t, Assignment{DueDate: due, AvailableUntil: &before}.ValidateWindow(), ErrAssignmentWindow)
	require.ErrorIs(t, Assignment{DueDate: due, AvailableFrom: &due}.ValidateWindow(), ErrAssignmentWindow)
}

func TestNormalizeAssignmentType(t *testing.T) {
	require.Equal(t, AssignmentTypeQuiz, NormalizeAssignmentType(" Quiz "))
	require.Equal(t, AssignmentTypeExam, NormalizeAssignmentType("EXAM"))
	require.Equal(t, AssignmentTypeHomework, NormalizeAssignmentType("essay"))
	require.Equal(t, AssignmentTypeHomework, NormalizeAssignmentType(""))
}

func TestAttachmentRoundTrip(t *testing.T) {
	encoded := encodeAttachments([]string{" notes.pdf", "", "rubric.md "})
	require.Equal(t, "|notes.pdf|rubric.md|", encoded)
	require.Equal(t, []string{"notes.pdf", "rubric.md"}, decodeAttachments(encoded))
	require.Empty(t, decodeAttachments(""))
}
