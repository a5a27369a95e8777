package dto

import (
	"time"

	"github.com/skolahub/skola-api/internal/models"
)

// EventCreateRequest schedules a calendar event.
type EventCreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	Location    string     `json:"location" validate:"omitempty,max=255"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Audience    string     `json:"audience" validate:"omitempty,oneof=all teachers students class"`
	ClassID     *uint      `json:"class_id" validate:"omitempty,gt=0"`
}

// EventUpdateRequest patches a calendar event.
type EventUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Location    *string    `json:"location" validate:"omitempty,max=255"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Audience    *string    `json:"audience" validate:"omitempty,oneof=all teachers students class"`
	ClassID     *uint      `json:"class_id" validate:"omitempty,gt=0"`
}

// EventListRequest defines filters for listing events.
type EventListRequest struct {
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
	Audience string
	ClassID  *uint
}

// EventResponse serializes a calendar event.
type EventResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Audience    string     `json:"audience"`
	ClassID     *uint      `json:"class_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventListResponse wraps a paginated event listing.
type EventListResponse struct {
	Items      []EventResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewEventResponse converts an event model into a DTO.
func NewEventResponse(model models.Event) EventResponse {
	return EventResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Location:    model.Location,
		StartsAt:    model.StartsAt,
		EndsAt:      model.EndsAt,
		Audience:    string(model.Audience),
		ClassID:     model.ClassID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewEventResponseSlice converts event models into DTOs.
func NewEventResponseSlice(events []models.Event) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewEventResponse(event))
	}

	return responses
}
