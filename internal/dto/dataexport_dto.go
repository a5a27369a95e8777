package dto

import "time"

// StudentDataExport bundles everything the platform stores about one student.
// It is handed to the requester as a single JSON document.
type StudentDataExport struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	Student       StudentResponse        `json:"student"`
	Enrollments   []EnrollmentResponse   `json:"enrollments"`
	Submissions   []SubmissionResponse   `json:"submissions"`
	Notifications []NotificationResponse `json:"notifications"`
	Activity      []ActivityResponse     `json:"activity"`
}

// AnonymizeResult reports what an anonymization pass scrubbed.
type AnonymizeResult struct {
	StudentID           uint      `json:"student_id"`
	ScrubbedFields      []string  `json:"scrubbed_fields"`
	SubmissionsScrubbed int       `json:"submissions_scrubbed"`
	AnonymizedAt        time.Time `json:"anonymized_at"`
}
