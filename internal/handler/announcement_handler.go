package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/internal/utils"
)

// AnnouncementHandler manages announcement endpoints.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler builds an announcement handler instance.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The active
// listing is readable by every authenticated role; mutations are limited
// to staff.
func (h *AnnouncementHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("admin", "teacher")

	router.Get("", h.listActive)
	router.Get("/:id", h.get)
	router.Post("", staff, h.create)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *AnnouncementHandler) listActive(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	audience := c.Query("audience")
	// Students only ever see the feed addressed to them.
	if isStudentRole(c) {
		audience = "students"
	}

	listing, err := h.service.ListActive(c.Context(), audience, classID, page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "announcements retrieved", listing, listing.Pagination)
}

func (h *AnnouncementHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	announcement, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "announcement retrieved", announcement)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	var payload dto.AnnouncementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	announcement, err := h.service.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "announcement created", announcement)
}

func (h *AnnouncementHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnnouncementUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	announcement, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "announcement updated", announcement)
}

func (h *AnnouncementHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "announcement deleted", nil)
}

func (h *AnnouncementHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "announcement not found")
	case errors.Is(err, service.ErrAnnouncementSlugTaken):
		return utils.SendError(c, fiber.StatusConflict, "announcement slug already in use")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("announcement request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
