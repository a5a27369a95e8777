package models

import "errors"

var (
	// ErrInvalidTransition reports a lifecycle operation attempted from a
	// status that does not allow it. Callers wrap it with the attempted
	// operation and the current status.
	ErrInvalidTransition = errors.New("invalid submission transition")

	// ErrAssignmentWindow reports an availability window that does not
	// bracket the assignment due date.
	ErrAssignmentWindow = errors.New("availability window must bracket the due date")

	// ErrEventSchedule reports an event whose end time does not follow its start.
	ErrEventSchedule = errors.New("event end must be after its start")
)
