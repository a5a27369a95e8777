package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

type announcementRepoStub struct {
	byID   map[uint]models.Announcement
	nextID uint
}

func newAnnouncementRepoStub() *announcementRepoStub {
	return &announcementRepoStub{byID: make(map[uint]models.Announcement), nextID: 1}
}

func (r *announcementRepoStub) ListActive(ctx context.Context, at time.Time, filter repository.AnnouncementFilter) ([]models.Announcement, int64, error) {
	items := make([]models.Announcement, 0, len(r.byID))
	for _, announcement := range r.byID {
		if announcement.IsActive(at) {
			items = append(items, announcement)
		}
	}
	return items, int64(len(items)), nil
}

func (r *announcementRepoStub) GetByID(ctx context.Context, id uint) (models.Announcement, error) {
	announcement, ok := r.byID[id]
	if !ok {
		return models.Announcement{}, gorm.ErrRecordNotFound
	}
	return announcement, nil
}

func (r *announcementRepoStub) GetBySlug(ctx context.Context, slug string) (models.Announcement, error) {
	for _, announcement := range r.byID {
		if announcement.Slug == slug {
			return announcement, nil
		}
	}
	return models.Announcement{}, gorm.ErrRecordNotFound
}

func (r *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = r.nextID
	r.nextID++
	r.byID[announcement.ID] = *announcement
	return nil
}

func (r *announcementRepoStub) Update(ctx context.Context, announcement *models.Announcement) error {
	r.byID[announcement.ID] = *announcement
	return nil
}

func (r *announcementRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func newAnnouncementFixture(t *testing.T, cache *redis.Client) (*announcementRepoStub, *recorderStub, AnnouncementService) {
	t.Helper()

	repo := newAnnouncementRepoStub()
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewAnnouncementService(repo, cache, time.Minute, validate, recorder, testLogger())
	return repo, recorder, svc
}

func TestAnnouncementCachingAndSanitize(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo, _, svc := newAnnouncementFixture(t, redisClient)
	repo.byID[1] = models.Announcement{
		ID:       1,
		Slug:     "hello",
		Title:    "Hello",
		Body:     "<script>alert('x')</script><p>Safe</p>",
		Audience: models.AudienceAll,
		StartsAt: time.Now().Add(-time.Hour),
	}

	resp, err := svc.ListActive(context.Background(), "all", nil, 1, 10)
	require.NoError(t, err)
	require.False(t, resp.CacheHit)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "Hello", resp.Items[0].Title)
	require.Equal(t, "<p>Safe</p>", resp.Items[0].Body)

	delete(repo.byID, 1)
	cached, err := svc.ListActive(context.Background(), "all", nil, 1, 10)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Len(t, cached.Items, 1)
}

func TestAnnouncementCreateInvalidatesListingCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo, recorder, svc := newAnnouncementFixture(t, redisClient)
	repo.byID[1] = models.Announcement{
		ID: 1, Slug: "first", Title: "First", Body: "<p>one</p>",
		Audience: models.AudienceAll, StartsAt: time.Now().Add(-time.Hour),
	}

	warm, err := svc.ListActive(context.Background(), "all", nil, 1, 10)
	require.NoError(t, err)
	require.False(t, warm.CacheHit)

	_, err = svc.Create(context.Background(), dto.AnnouncementCreateRequest{
		Slug:  "second",
		Title: "Second announcement",
		Body:  "<p>two</p>",
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "announcement.created", recorder.entries[0].Action)

	refreshed, err := svc.ListActive(context.Background(), "all", nil, 1, 10)
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Len(t, refreshed.Items, 2)
}

func TestAnnouncementCreateDuplicateSlug(t *testing.T) {
	repo, _, svc := newAnnouncementFixture(t, nil)
	repo.byID[1] = models.Announcement{ID: 1, Slug: "exam-week", Title: "Exam week", Body: "soon"}

	_, err := svc.Create(context.Background(), dto.AnnouncementCreateRequest{
		Slug:  " EXAM-WEEK ",
		Title: "Exam week again",
		Body:  "<p>soon</p>",
	}, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrAnnouncementSlugTaken)
}

func TestAnnouncementCreateNormalizesAudience(t *testing.T) {
	repo, _, svc := newAnnouncementFixture(t, nil)

	created, err := svc.Create(context.Background(), dto.AnnouncementCreateRequest{
		Slug:     "students-only",
		Title:    "Students only",
		Body:     "<p>psst</p>",
		Audience: "students",
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "students", created.Audience)

	stored := repo.byID[created.ID]
	require.Equal(t, models.AudienceStudents, stored.Audience)
}

func TestAnnouncementCreateDefaultsStartToNow(t *testing.T) {
	repo, _, svc := newAnnouncementFixture(t, nil)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.(*announcementService).now = func() time.Time { return now }

	created, err := svc.Create(context.Background(), dto.AnnouncementCreateRequest{
		Slug:  "starts-now",
		Title: "Starts now",
		Body:  "<p>go</p>",
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, now, created.StartsAt)
	require.Equal(t, now, repo.byID[created.ID].StartsAt)
}

func TestAnnouncementGetUnknown(t *testing.T) {
	_, _, svc := newAnnouncementFixture(t, nil)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrAnnouncementNotFound)
}

func TestAnnouncementDeleteUnknown(t *testing.T) {
	_, _, svc := newAnnouncementFixture(t, nil)

	err := svc.Delete(context.Background(), 404, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrAnnouncementNotFound)
}
