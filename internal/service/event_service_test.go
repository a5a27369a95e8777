package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

type eventRepoStub struct {
	byID map[uint]models.Event
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{byID: make(map[uint]models.Event)}
}

func (r *eventRepoStub) List(ctx context.Context, filter repository.EventFilter) ([]models.Event, int64, error) {
	items := make([]models.Event, 0, len(r.byID))
	for _, event := range r.byID {
		items = append(items, event)
	}
	return items, int64(len(items)), nil
}

func (r *eventRepoStub) GetByID(ctx context.Context, id uint) (models.Event, error) {
	event, ok := r.byID[id]
	if !ok {
		return models.Event{}, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (r *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	if event.ID == 0 {
		event.ID = uint(len(r.byID) + 1)
	}
	r.byID[event.ID] = *event
	return nil
}

func (r *eventRepoStub) Update(ctx context.Context, event *models.Event) error {
	if _, ok := r.byID[event.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.byID[event.ID] = *event
	return nil
}

func (r *eventRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func newEventFixture(t *testing.T) (*eventRepoStub, *recorderStub, EventService) {
	t.Helper()

	repo := newEventRepoStub()
	recorder := &recorderStub{}
	svc := NewEventService(repo, validator.New(validator.WithRequiredStructEnabled()), recorder, testLogger())
	return repo, recorder, svc
}

func TestEventCreateNormalizesAudience(t *testing.T) {
	_, recorder, svc := newEventFixture(t)
	starts := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), dto.EventCreateRequest{
		Title:    "  Science Fair ",
		Location: " Main Hall ",
		StartsAt: starts,
		Audience: "students",
	}, ActivityActor{ID: 3, Role: "teacher"})
	require.NoError(t, err)

	require.Equal(t, "Science Fair", created.Title)
	require.Equal(t, "Main Hall", created.Location)
	require.Equal(t, string(models.AudienceStudents), created.Audience)

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "event.created", recorder.entries[0].Action)
}

func TestEventCreateRejectsEndBeforeStart(t *testing.T) {
	repo, _, svc := newEventFixture(t)
	starts := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	ends := starts.Add(-time.Hour)

	_, err := svc.Create(context.Background(), dto.EventCreateRequest{
		Title:    "Science Fair",
		StartsAt: starts,
		EndsAt:   &ends,
	}, ActivityActor{ID: 3, Role: "teacher"})
	require.ErrorIs(t, err, models.ErrEventSchedule)
	require.Empty(t, repo.byID)
}

func TestEventUpdateValidatesShiftedSchedule(t *testing.T) {
	repo, _, svc := newEventFixture(t)
	starts := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	ends := starts.Add(2 * time.Hour)
	repo.byID[7] = models.Event{ID: 7, Title: "Science Fair", StartsAt: starts, EndsAt: &ends, Audience: models.AudienceAll}

	// Moving the start past the existing end must fail the same check as create.
	badStart := ends.Add(time.Hour)
	_, err := svc.Update(context.Background(), 7, dto.EventUpdateRequest{StartsAt: &badStart}, ActivityActor{ID: 3, Role: "teacher"})
	require.ErrorIs(t, err, models.ErrEventSchedule)

	newTitle := "Science Fair Finals"
	updated, err := svc.Update(context.Background(), 7, dto.EventUpdateRequest{Title: &newTitle}, ActivityActor{ID: 3, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "Science Fair Finals", updated.Title)
	require.Equal(t, starts, repo.byID[7].StartsAt)
}

func TestEventDeleteUnknown(t *testing.T) {
	_, _, svc := newEventFixture(t)

	err := svc.Delete(context.Background(), 404, ActivityActor{ID: 3, Role: "teacher"})
	require.ErrorIs(t, err, ErrEventNotFound)
}
