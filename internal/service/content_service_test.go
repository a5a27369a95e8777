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

type contentRepoStub struct {
	pages    map[uint]models.ContentPage
	versions map[uint][]models.ContentVersion
	nextPage uint
	nextVer  uint
}

func newContentRepoStub() *contentRepoStub {
	return &contentRepoStub{
		pages:    make(map[uint]models.ContentPage),
		versions: make(map[uint][]models.ContentVersion),
		nextPage: 1,
		nextVer:  1,
	}
}

func (r *contentRepoStub) ListPages(ctx context.Context, filter repository.ContentPageFilter) ([]models.ContentPage, int64, error) {
	items := make([]models.ContentPage, 0, len(r.pages))
	for _, page := range r.pages {
		if filter.Status != "" && string(page.Status) != filter.Status {
			continue
		}
		items = append(items, page)
	}
	return items, int64(len(items)), nil
}

func (r *contentRepoStub) GetPage(ctx context.Context, id uint) (models.ContentPage, error) {
	page, ok := r.pages[id]
	if !ok {
		return models.ContentPage{}, gorm.ErrRecordNotFound
	}
	return page, nil
}

func (r *contentRepoStub) GetPageBySlug(ctx context.Context, slug string) (models.ContentPage, error) {
	for _, page := range r.pages {
		if page.Slug == slug {
			return page, nil
		}
	}
	return models.ContentPage{}, gorm.ErrRecordNotFound
}

func (r *contentRepoStub) CreatePage(ctx context.Context, page *models.ContentPage) error {
	page.ID = r.nextPage
	r.nextPage++
	r.pages[page.ID] = *page
	return nil
}

func (r *contentRepoStub) UpdatePage(ctx context.Context, page *models.ContentPage) error {
	r.pages[page.ID] = *page
	return nil
}

func (r *contentRepoStub) DeletePage(ctx context.Context, id uint) error {
	if _, ok := r.pages[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.pages, id)
	delete(r.versions, id)
	return nil
}

func (r *contentRepoStub) ListVersions(ctx context.Context, pageID uint) ([]models.ContentVersion, error) {
	return append([]models.ContentVersion(nil), r.versions[pageID]...), nil
}

func (r *contentRepoStub) GetVersion(ctx context.Context, pageID, versionID uint) (models.ContentVersion, error) {
	for _, version := range r.versions[pageID] {
		if version.ID == versionID {
			return version, nil
		}
	}
	return models.ContentVersion{}, gorm.ErrRecordNotFound
}

func (r *contentRepoStub) CreateVersion(ctx context.Context, version *models.ContentVersion) error {
	version.ID = r.nextVer
	r.nextVer++
	version.VersionNumber = len(r.versions[version.ContentPageID]) + 1
	r.versions[version.ContentPageID] = append(r.versions[version.ContentPageID], *version)
	return nil
}

func (r *contentRepoStub) PublishVersion(ctx context.Context, pageID, versionID uint, at time.Time) (models.ContentPage, error) {
	page, ok := r.pages[pageID]
	if !ok {
		return models.ContentPage{}, gorm.ErrRecordNotFound
	}

	var target *models.ContentVersion
	for i := range r.versions[pageID] {
		if r.versions[pageID][i].ID == versionID {
			target = &r.versions[pageID][i]
		}
		r.versions[pageID][i].IsCurrent = false
	}
	if target == nil {
		return models.ContentPage{}, gorm.ErrRecordNotFound
	}
	target.IsCurrent = true

	page.Title = target.Title
	page.Body = target.Body
	page.Status = models.ContentStatusPublished
	page.CurrentVersionID = &target.ID
	if page.PublishedAt == nil {
		published := at
		page.PublishedAt = &published
	}
	r.pages[pageID] = page
	return page, nil
}

func newContentFixture(t *testing.T) (*contentRepoStub, *recorderStub, *contentService) {
	t.Helper()

	repo := newContentRepoStub()
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewContentService(repo, validate, recorder, testLogger()).(*contentService)
	return repo, recorder, svc
}

func TestContentCreatePageSanitizesBody(t *testing.T) {
	repo, recorder, svc := newContentFixture(t)

	page, err := svc.CreatePage(context.Background(), dto.ContentPageCreateRequest{
		Slug:  "  About-Us ",
		Title: "  About the school ",
		Body:  `<p>Welcome</p><script>alert("x")</script>`,
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "about-us", page.Slug)
	require.Equal(t, "About the school", page.Title)
	require.Equal(t, "<p>Welcome</p>", page.Body)
	require.Equal(t, "draft", page.Status)

	require.Len(t, repo.pages, 1)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "content.page_created", recorder.entries[0].Action)
}

func TestContentCreatePageDuplicateSlug(t *testing.T) {
	repo, _, svc := newContentFixture(t)
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "about-us", Title: "About"}

	_, err := svc.CreatePage(context.Background(), dto.ContentPageCreateRequest{
		Slug:  "ABOUT-US",
		Title: "Another about page",
	}, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrContentSlugTaken)
}

func TestContentUpdatePageSanitizesAndNormalizes(t *testing.T) {
	repo, _, svc := newContentFixture(t)
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "about-us", Title: "About", Status: models.ContentStatusDraft}

	body := `Hello<iframe src="evil"></iframe>`
	status := "archived"
	page, err := svc.UpdatePage(context.Background(), 1, dto.ContentPageUpdateRequest{Body: &body, Status: &status}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "Hello", page.Body)
	require.Equal(t, "archived", page.Status)
}

func TestContentVersionNumbersAreSequential(t *testing.T) {
	repo, recorder, svc := newContentFixture(t)
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "about-us", Title: "About"}

	for i := 0; i < 3; i++ {
		_, err := svc.CreateVersion(context.Background(), 1, dto.ContentVersionCreateRequest{
			Title: "About the school",
			Body:  "<p>Draft</p>",
		}, ActivityActor{ID: 1, Role: "admin"})
		require.NoError(t, err)
	}

	versions, err := svc.ListVersions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, version := range versions {
		require.Equal(t, i+1, version.VersionNumber)
	}
	require.Len(t, recorder.entries, 3)
	require.Equal(t, "content.version_created", recorder.entries[0].Action)
}

func TestContentPublishVersionSwapsCurrent(t *testing.T) {
	repo, _, svc := newContentFixture(t)
	firstPublish := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstPublish }
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "exam-policy", Title: "Exam policy", Status: models.ContentStatusDraft}

	v1, err := svc.CreateVersion(context.Background(), 1, dto.ContentVersionCreateRequest{Title: "Exam policy", Body: "<p>first</p>"}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(context.Background(), 1, dto.ContentVersionCreateRequest{Title: "Exam policy, revised", Body: "<p>second</p>"}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)

	page, err := svc.PublishVersion(context.Background(), 1, v1.ID, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "published", page.Status)
	require.Equal(t, "<p>first</p>", page.Body)

	svc.now = func() time.Time { return firstPublish.Add(48 * time.Hour) }
	page, err = svc.PublishVersion(context.Background(), 1, v2.ID, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "Exam policy, revised", page.Title)

	versions, err := svc.ListVersions(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, versions[0].IsCurrent)
	require.True(t, versions[1].IsCurrent)

	// Republishing keeps the original first publish time.
	require.NotNil(t, page.PublishedAt)
	require.Equal(t, firstPublish, *page.PublishedAt)
}

func TestContentPublishUnknownVersion(t *testing.T) {
	repo, _, svc := newContentFixture(t)
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "about-us", Title: "About"}

	_, err := svc.PublishVersion(context.Background(), 1, 404, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrContentVersionNotFound)
}

func TestContentVersionsForUnknownPage(t *testing.T) {
	_, _, svc := newContentFixture(t)

	_, err := svc.ListVersions(context.Background(), 404)
	require.ErrorIs(t, err, ErrContentPageNotFound)

	_, err = svc.CreateVersion(context.Background(), 404, dto.ContentVersionCreateRequest{Title: "Orphan"}, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrContentPageNotFound)
}

func TestContentGetPageBySlugTrims(t *testing.T) {
	repo, _, svc := newContentFixture(t)
	repo.pages[1] = models.ContentPage{ID: 1, Slug: "about-us", Title: "About"}

	page, err := svc.GetPageBySlug(context.Background(), "  ABOUT-US ")
	require.NoError(t, err)
	require.Equal(t, uint(1), page.ID)

	_, err = svc.GetPageBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, ErrContentPageNotFound)
}
