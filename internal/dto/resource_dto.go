package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// ResourceUploadRequest describes the multipart payload for resource upload.
type ResourceUploadRequest struct {
	Title       string `form:"title" validate:"required,min=3"`
	Description string `form:"description" validate:"omitempty,max=2000"`
	SubjectID   *uint  `form:"subject_id" validate:"omitempty,gt=0"`
	ClassID     *uint  `form:"class_id" validate:"omitempty,gt=0"`
}

// ResourceResponse serializes a learning material.
type ResourceResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SubjectID   *uint     `json:"subject_id"`
	ClassID     *uint     `json:"class_id"`
	UploadedBy  uint      `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResourceListResponse wraps a paginated resource listing.
type ResourceListResponse struct {
	Items      []ResourceResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewResourceResponse converts a resource model into a DTO.
func NewResourceResponse(model models.Resource) ResourceResponse {
	return ResourceResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		FileURL:     model.FileURL,
		FileName:    model.FileName,
		MimeType:    model.MimeType,
		SizeBytes:   model.SizeBytes,
		SubjectID:   model.SubjectID,
		ClassID:     model.ClassID,
		UploadedBy:  model.UploadedBy,
		CreatedAt:   model.CreatedAt,
	}
}

// NewResourceResponseSlice converts resource models into DTOs.
func NewResourceResponseSlice(resources []models.Resource) []ResourceResponse {
	responses := make([]ResourceResponse, 0, len(resources))
	for _, resource := range resources {
		responses = append(responses, NewResourceResponse(resource))
	}

	return responses
}
