package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/internal/utils"
)

// ActivityHandler exposes the audit trail to administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	admin := middleware.RequireRole("admin")

	router.Get("", admin, h.list)
	router.Get("/:entityType/:entityID", admin, h.listForEntity)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	req := dto.ActivityListRequest{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	req.Page, req.PageSize = pageParams(c)

	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if actorID != nil {
		req.ActorID = *actorID
	}

	listing, err := h.service.List(c.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("activity listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccessWithMeta(c, "activity retrieved", listing.Items, listing.Pagination)
}

func (h *ActivityHandler) listForEntity(c *fiber.Ctx) error {
	entityType := c.Params("entityType")
	if entityType == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "entity type is required")
	}

	entityID, err := parseUintParam(c, "entityID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.service.ListForEntity(c.Context(), entityType, entityID)
	if err != nil {
		h.logger.Error().Err(err).Msg("entity activity listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "activity retrieved", entries)
}
