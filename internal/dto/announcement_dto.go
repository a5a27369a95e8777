package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// AnnouncementCreateRequest publishes a new announcement.
type AnnouncementCreateRequest struct {
	Slug          string     `json:"slug" validate:"required,min=3,max=128"`
	Title         string     `json:"title" validate:"required,min=3"`
	Body          string     `json:"body" validate:"required,min=3"`
	Audience      string     `json:"audience" validate:"omitempty,oneof=all teachers students class"`
	TargetClassID *uint      `json:"target_class_id" validate:"omitempty,gt=0"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	IsPinned      bool       `json:"is_pinned"`
}

// AnnouncementUpdateRequest patches an announcement.
type AnnouncementUpdateRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=3"`
	Body          *string    `json:"body" validate:"omitempty,min=3"`
	Audience      *string    `json:"audience" validate:"omitempty,oneof=all teachers students class"`
	TargetClassID *uint      `json:"target_class_id" validate:"omitempty,gt=0"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	IsPinned      *bool      `json:"is_pinned"`
}

// AnnouncementResponse serializes an announcement for clients.
type AnnouncementResponse struct {
	ID            uint       `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Audience      string     `json:"audience"`
	TargetClassID *uint      `json:"target_class_id"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	IsPinned      bool       `json:"is_pinned"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AnnouncementListResponse wraps the active announcement listing together
// with its cache provenance.
type AnnouncementListResponse struct {
	Items      []AnnouncementResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	CacheHit   bool                   `json:"cache_hit"`
}

// NewAnnouncementResponse converts an announcement model into a DTO.
func NewAnnouncementResponse(model models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:            model.ID,
		Slug:          model.Slug,
		Title:         model.Title,
		Body:          model.Body,
		Audience:      string(model.Audience),
		TargetClassID: model.TargetClassID,
		StartsAt:      model.StartsAt,
		EndsAt:        model.EndsAt,
		IsPinned:      model.IsPinned,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
