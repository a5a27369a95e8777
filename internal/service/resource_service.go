package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
)

var (
	// ErrResourceNotFound indicates the learning material was not located.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ResourceService validates, stores and lists learning materials.
type ResourceService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, req dto.ResourceUploadRequest, actor ActivityActor) (dto.ResourceResponse, error)
	List(ctx context.Context, search string, subjectID, classID *uint, page, pageSize int) (dto.ResourceListResponse, error)
	Get(ctx context.Context, id uint) (dto.ResourceResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type resourceService struct {
	storage   FileStorage
	repo      repository.ResourceRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	maxSize   int64
	tracer    trace.Tracer
}

// NewResourceService constructs a resource service.
func NewResourceService(storage FileStorage, repo repository.ResourceRepository, maxSizeMB int, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ResourceService {
	if maxSizeMB <= 0 {
		maxSizeMB = 25
	}
	return &resourceService{
		storage:   storage,
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "resource_service").Logger(),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		tracer:    otel.Tracer("github.com/skolahub/skola-api/internal/service/resource"),
	}
}

func (s *resourceService) Upload(ctx context.Context, file *multipart.FileHeader, req dto.ResourceUploadRequest, actor ActivityActor) (dto.ResourceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "resource.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("resource.max_bytes", s.maxSize))

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ResourceResponse{}, err
	}

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ResourceResponse{}, err
	}

	span.SetAttributes(
		attribute.String("resource.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("resource.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload_too_large")
		return dto.ResourceResponse{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open_failed")
		return dto.ResourceResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read_failed")
		return dto.ResourceResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload_too_large")
		return dto.ResourceResponse{}, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	fileType := normalizeMime(mime.String())
	span.SetAttributes(attribute.String("resource.detected_mime", fileType))
	if !isAllowedType(fileType) {
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type_not_allowed")
		return dto.ResourceResponse{}, ErrUploadTypeNotAllowed
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan_failed")
		return dto.ResourceResponse{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename)
	span.SetAttributes(
		attribute.String("resource.sanitized_name", sanitizedName),
		attribute.Int64("resource.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Upload(ctx, sanitizedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage_failed")
		return dto.ResourceResponse{}, err
	}

	resource := models.Resource{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		FileURL:     url,
		FileName:    sanitizedName,
		MimeType:    fileType,
		SizeBytes:   int64(buf.Len()),
		Checksum:    hex.EncodeToString(checksum[:]),
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		UploadedBy:  actor.ID,
	}

	if err := s.repo.Create(ctx, &resource); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence_failed")
		return dto.ResourceResponse{}, err
	}

	span.SetStatus(codes.Ok, "stored")

	s.record(ctx, actor, "resource.uploaded", resource.ID, map[string]interface{}{
		"file_name":  resource.FileName,
		"mime_type":  resource.MimeType,
		"size_bytes": resource.SizeBytes,
	})

	return dto.NewResourceResponse(resource), nil
}

func (s *resourceService) List(ctx context.Context, search string, subjectID, classID *uint, page, pageSize int) (dto.ResourceListResponse, error) {
	resources, total, err := s.repo.List(ctx, repository.ResourceFilter{
		Search:    strings.TrimSpace(search),
		SubjectID: subjectID,
		ClassID:   classID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.ResourceListResponse{}, err
	}

	return dto.ResourceListResponse{
		Items:      dto.NewResourceResponseSlice(resources),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *resourceService) Get(ctx context.Context, id uint) (dto.ResourceResponse, error) {
	resource, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResourceResponse{}, ErrResourceNotFound
		}
		return dto.ResourceResponse{}, err
	}

	return dto.NewResourceResponse(resource), nil
}

func (s *resourceService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return err
	}

	s.record(ctx, actor, "resource.deleted", id, nil)
	return nil
}

// scan rejects zip archives whose declared uncompressed size explodes far
// beyond the upload limit.
func (s *resourceService) scan(payload []byte, mime string) error {
	if strings.Contains(mime, "zip") {
		reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			return ErrUploadScanFailed
		}
		var totalUncompressed uint64
		for _, f := range reader.File {
			totalUncompressed += f.UncompressedSize64
			if totalUncompressed > uint64(s.maxSize*20) {
				return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
			}
		}
	}
	return nil
}

func (s *resourceService) record(ctx context.Context, actor ActivityActor, action string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "resource",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("resource_id", entityID).Msg("failed to record resource activity")
	}
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	switch lower {
	case "application/pdf":
		return "application/pdf"
	case "application/zip", "application/x-zip-compressed":
		return "application/zip"
	default:
		return lower
	}
}

func isAllowedType(m string) bool {
	if m == "image" {
		return true
	}
	switch m {
	case "application/pdf", "application/zip", "text/plain; charset=utf-8":
		return true
	default:
		return false
	}
}
