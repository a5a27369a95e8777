package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// ContentPageCreateRequest registers a new editable page.
type ContentPageCreateRequest struct {
	Slug  string `json:"slug" validate:"required,min=3,max=160"`
	Title string `json:"title" validate:"required,min=3"`
	Body  string `json:"body" validate:"omitempty"`
}

// ContentPageUpdateRequest patches the working copy of a page.
type ContentPageUpdateRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=3"`
	Body   *string `json:"body"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// ContentVersionCreateRequest snapshots the page under a new version number.
type ContentVersionCreateRequest struct {
	Title      string `json:"title" validate:"required,min=3"`
	Body       string `json:"body" validate:"omitempty"`
	ChangeNote string `json:"change_note" validate:"omitempty,max=512"`
}

// ContentPageResponse serializes a content page.
type ContentPageResponse struct {
	ID               uint       `json:"id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Status           string     `json:"status"`
	CurrentVersionID *uint      `json:"current_version_id"`
	PublishedAt      *time.Time `json:"published_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ContentVersionResponse serializes a version snapshot.
type ContentVersionResponse struct {
	ID            uint      `json:"id"`
	ContentPageID uint      `json:"content_page_id"`
	VersionNumber int       `json:"version_number"`
	Title         string    `json:"title"`
	ChangeNote    string    `json:"change_note"`
	IsCurrent     bool      `json:"is_current"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContentPageListResponse wraps a paginated page listing.
type ContentPageListResponse struct {
	Items      []ContentPageResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// NewContentPageResponse converts a content page model into a DTO.
func NewContentPageResponse(model models.ContentPage) ContentPageResponse {
	return ContentPageResponse{
		ID:               model.ID,
		Slug:             model.Slug,
		Title:            model.Title,
		Body:             model.Body,
		Status:           string(model.Status),
		CurrentVersionID: model.CurrentVersionID,
		PublishedAt:      model.PublishedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewContentPageResponseSlice converts content page models into DTOs.
func NewContentPageResponseSlice(pages []models.ContentPage) []ContentPageResponse {
	responses := make([]ContentPageResponse, 0, len(pages))
	for _, page := range pages {
		responses = append(responses, NewContentPageResponse(page))
	}

	return responses
}

// NewContentVersionResponse converts a version model into a DTO. The body is
// left out of listings and exposed through the page once published.
func NewContentVersionResponse(model models.ContentVersion) ContentVersionResponse {
	return ContentVersionResponse{
		ID:            model.ID,
		ContentPageID: model.ContentPageID,
		VersionNumber: model.VersionNumber,
		Title:         model.Title,
		ChangeNote:    model.ChangeNote,
		IsCurrent:     model.IsCurrent,
		CreatedBy:     model.CreatedBy,
		CreatedAt:     model.CreatedAt,
	}
}

// NewContentVersionResponseSlice converts version models into DTOs.
func NewContentVersionResponseSlice(versions []models.ContentVersion) []ContentVersionResponse {
	responses := make([]ContentVersionResponse, 0, len(versions))
	for _, version := range versions {
		responses = append(responses, NewContentVersionResponse(version))
	}

	return responses
}
