package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

type storageStub struct {
	uploaded bytes.Buffer
	lastName string
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.uploaded.Reset()
	s.lastName = name
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

type resourceRepoStub struct {
	byID   map[uint]models.Resource
	nextID uint
}

func newResourceRepoStub() *resourceRepoStub {
	return &resourceRepoStub{byID: make(map[uint]models.Resource), nextID: 1}
}

func (r *resourceRepoStub) List(ctx context.Context, filter repository.ResourceFilter) ([]models.Resource, int64, error) {
	items := make([]models.Resource, 0, len(r.byID))
	for _, resource := range r.byID {
		items = append(items, resource)
	}
	return items, int64(len(items)), nil
}

func (r *resourceRepoStub) GetByID(ctx context.Context, id uint) (models.Resource, error) {
	resource, ok := r.byID[id]
	if !ok {
		return models.Resource{}, gorm.ErrRecordNotFound
	}
	return resource, nil
}

func (r *resourceRepoStub) Create(ctx context.Context, resource *models.Resource) error {
	resource.ID = r.nextID
	r.nextID++
	r.byID[resource.ID] = *resource
	return nil
}

func (r *resourceRepoStub) Delete(ctx context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func newResourceFixture(t *testing.T, maxSizeMB int) (*storageStub, *resourceRepoStub, *recorderStub, ResourceService) {
	t.Helper()

	storage := &storageStub{}
	repo := newResourceRepoStub()
	recorder := &recorderStub{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewResourceService(storage, repo, maxSizeMB, validate, recorder, testLogger())
	return storage, repo, recorder, svc
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func buildZip(t *testing.T, name string, payload []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create(name)
	require.NoError(t, err)
	_, err = entry.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestResourceUploadRejectsOversize(t *testing.T) {
	_, _, _, svc := newResourceFixture(t, 1)

	file := buildFileHeader(t, "big.pdf", bytes.Repeat([]byte("a"), 2*1024*1024))
	_, err := svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "Big file"}, ActivityActor{ID: 2, Role: "teacher"})
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestResourceUploadRejectsDisallowedType(t *testing.T) {
	_, repo, _, svc := newResourceFixture(t, 5)

	elf := append([]byte{0x7f, 0x45, 0x4c, 0x46}, bytes.Repeat([]byte{0}, 64)...)
	file := buildFileHeader(t, "tool.bin", elf)
	_, err := svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "Some binary"}, ActivityActor{ID: 2, Role: "teacher"})
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
	require.Empty(t, repo.byID)
}

func TestResourceUploadStoresPdf(t *testing.T) {
	storage, repo, recorder, svc := newResourceFixture(t, 5)

	payload := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")
	file := buildFileHeader(t, "Course Outline.PDF", payload)

	resp, err := svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "  Course outline "}, ActivityActor{ID: 2, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "Course outline", resp.Title)
	require.Equal(t, "application/pdf", resp.MimeType)
	require.Equal(t, "course-outline.pdf", resp.FileName)
	require.Equal(t, "https://cdn.example.com/course-outline.pdf", resp.FileURL)
	require.Equal(t, int64(len(payload)), resp.SizeBytes)

	require.Equal(t, payload, storage.uploaded.Bytes())

	stored := repo.byID[resp.ID]
	require.Len(t, stored.Checksum, 64)
	require.Equal(t, uint(2), stored.UploadedBy)

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "resource.uploaded", recorder.entries[0].Action)
}

func TestResourceUploadAcceptsImages(t *testing.T) {
	_, repo, _, svc := newResourceFixture(t, 5)

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	file := buildFileHeader(t, "diagram.png", pngHeader)

	resp, err := svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "Cell diagram"}, ActivityActor{ID: 2, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "image", resp.MimeType)
	require.Equal(t, "image", repo.byID[resp.ID].MimeType)
}

func TestResourceUploadScansZipArchives(t *testing.T) {
	_, _, _, svc := newResourceFixture(t, 5)

	valid := buildZip(t, "notes.txt", []byte("lecture notes"))
	file := buildFileHeader(t, "notes.zip", valid)
	resp, err := svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "Lecture notes"}, ActivityActor{ID: 2, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "application/zip", resp.MimeType)

	// A zip signature with a mangled body fails the scan rather than the type check.
	corrupt := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xff}, 128)...)
	file = buildFileHeader(t, "broken.zip", corrupt)
	_, err = svc.Upload(context.Background(), file, dto.ResourceUploadRequest{Title: "Broken archive"}, ActivityActor{ID: 2, Role: "teacher"})
	require.ErrorIs(t, err, ErrUploadScanFailed)
}

func TestResourceUploadRequiresFile(t *testing.T) {
	_, _, _, svc := newResourceFixture(t, 5)

	_, err := svc.Upload(context.Background(), nil, dto.ResourceUploadRequest{Title: "No file"}, ActivityActor{ID: 2, Role: "teacher"})
	require.Error(t, err)
}

func TestResourceGetAndDeleteUnknown(t *testing.T) {
	_, _, _, svc := newResourceFixture(t, 5)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrResourceNotFound)

	err = svc.Delete(context.Background(), 404, ActivityActor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrResourceNotFound)
}
