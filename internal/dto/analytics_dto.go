package dto

import "time"

// GradeDistributionResponse represents aggregated grade buckets.
type GradeDistributionResponse map[string]int64

// WeeklyEngagementPoint captures submissions handed in per week.
type WeeklyEngagementPoint struct {
	WeekStart   time.Time `json:"week_start"`
	Submissions int64     `json:"submissions"`
}

// PlatformAnalyticsResponse aggregates platform-wide metrics for staff.
type PlatformAnalyticsResponse struct {
	ActiveStudents       int64                     `json:"active_students"`
	PublishedAssignments int64                     `json:"published_assignments"`
	OnTimeSubmissions    int64                     `json:"on_time_submissions"`
	LateSubmissions      int64                     `json:"late_submissions"`
	GradeDistribution    GradeDistributionResponse `json:"grade_distribution"`
	WeeklyEngagement     []WeeklyEngagementPoint   `json:"weekly_engagement"`
	GeneratedAt          time.Time                 `json:"generated_at"`
	CacheHit             bool                      `json:"cache_hit"`
}
