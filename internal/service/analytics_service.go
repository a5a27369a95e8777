package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

// AnalyticsService aggregates platform-wide metrics for staff dashboards.
type AnalyticsService interface {
	GetSummary(ctx context.Context) (dto.PlatformAnalyticsResponse, error)
}

type analyticsService struct {
	repo     repository.AnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo repository.AnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *analyticsService) GetSummary(ctx context.Context) (dto.PlatformAnalyticsResponse, error) {
	const cacheKey = "analytics:summary"
	tracer := otel.Tracer("github.com/skolahub/skola-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.PlatformAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	activeCount, err := s.repo.CountActiveStudents(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_active_students_failed")
		return dto.PlatformAnalyticsResponse{}, err
	}

	publishedCount, err := s.repo.CountAssignments(ctx, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_assignments_failed")
		return dto.PlatformAnalyticsResponse{}, err
	}

	submissions, err := s.repo.ListSubmissionsWithAssignments(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_submissions_failed")
		return dto.PlatformAnalyticsResponse{}, err
	}

	now := s.now()
	recent, err := s.repo.ListSubmissionsSince(ctx, now.AddDate(0, 0, -56))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_recent_submissions_failed")
		return dto.PlatformAnalyticsResponse{}, err
	}

	summary := s.buildSummary(now, activeCount, publishedCount, submissions, recent)
	span.SetAttributes(
		attribute.Int64("analytics.active_students", activeCount),
		attribute.Int("analytics.submission_count", len(submissions)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

// buildSummary folds the all-time submission list into totals and grade
// buckets; the weekly series comes from the pre-windowed recent list.
func (s *analyticsService) buildSummary(now time.Time, activeCount, publishedCount int64, submissions, recent []models.Submission) dto.PlatformAnalyticsResponse {
	onTime := int64(0)
	late := int64(0)
	distribution := dto.GradeDistributionResponse{
		"90-100": 0,
		"75-89":  0,
		"60-74":  0,
		"0-59":   0,
	}

	for _, submission := range submissions {
		if submission.SubmittedAt == nil {
			continue
		}

		if submission.IsLate {
			late++
		} else {
			onTime++
		}

		if submission.Grade != nil {
			switch grade := *submission.Grade; {
			case grade >= 90:
				distribution["90-100"]++
			case grade >= 75:
				distribution["75-89"]++
			case grade >= 60:
				distribution["60-74"]++
			default:
				distribution["0-59"]++
			}
		}
	}

	weekly := map[time.Time]int64{}
	for _, submission := range recent {
		if submission.SubmittedAt == nil {
			continue
		}
		weekly[startOfWeek(*submission.SubmittedAt)]++
	}

	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	engagement := make([]dto.WeeklyEngagementPoint, 0, len(weeks))
	for _, week := range weeks {
		engagement = append(engagement, dto.WeeklyEngagementPoint{WeekStart: week, Submissions: weekly[week]})
	}

	return dto.PlatformAnalyticsResponse{
		ActiveStudents:       activeCount,
		PublishedAssignments: publishedCount,
		OnTimeSubmissions:    onTime,
		LateSubmissions:      late,
		GradeDistribution:    distribution,
		WeeklyEngagement:     engagement,
		GeneratedAt:          now,
		CacheHit:             false,
	}
}

// startOfWeek truncates to the preceding Monday midnight in UTC.
func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
