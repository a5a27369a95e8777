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

// ContentHandler manages editable page and version endpoints.
type ContentHandler struct {
	service service.ContentService
	logger  zerolog.Logger
}

// NewContentHandler builds a content handler instance.
func NewContentHandler(service service.ContentService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service: service,
		logger:  logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Reading pages
// is open to every authenticated role; editing and version management is
// limited to staff.
func (h *ContentHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("admin", "teacher")

	router.Get("", h.listPages)
	router.Get("/slug/:slug", h.getPageBySlug)
	router.Get("/:id", h.getPage)
	router.Post("", staff, h.createPage)
	router.Put("/:id", staff, h.updatePage)
	router.Delete("/:id", staff, h.deletePage)

	router.Get("/:id/versions", staff, h.listVersions)
	router.Post("/:id/versions", staff, h.createVersion)
	router.Post("/:id/versions/:versionID/publish", staff, h.publishVersion)
}

func (h *ContentHandler) listPages(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)

	status := c.Query("status")
	// Students never see drafts or archived pages.
	if isStudentRole(c) {
		status = "published"
	}

	listing, err := h.service.ListPages(c.Context(), status, c.Query("search"), page, pageSize)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "pages retrieved", listing.Items, listing.Pagination)
}

func (h *ContentHandler) getPage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.service.GetPage(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if isStudentRole(c) && page.Status != "published" {
		return utils.SendError(c, fiber.StatusNotFound, "content page not found")
	}

	return utils.SendSuccess(c, "page retrieved", page)
}

func (h *ContentHandler) getPageBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "slug is required")
	}

	page, err := h.service.GetPageBySlug(c.Context(), slug)
	if err != nil {
		return h.handleError(c, err)
	}

	if isStudentRole(c) && page.Status != "published" {
		return utils.SendError(c, fiber.StatusNotFound, "content page not found")
	}

	return utils.SendSuccess(c, "page retrieved", page)
}

func (h *ContentHandler) createPage(c *fiber.Ctx) error {
	var payload dto.ContentPageCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	page, err := h.service.CreatePage(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "page created", page)
}

func (h *ContentHandler) updatePage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ContentPageUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	page, err := h.service.UpdatePage(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "page updated", page)
}

func (h *ContentHandler) deletePage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeletePage(c.Context(), id, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "page deleted", nil)
}

func (h *ContentHandler) listVersions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	versions, err := h.service.ListVersions(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "versions retrieved", versions)
}

func (h *ContentHandler) createVersion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ContentVersionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	version, err := h.service.CreateVersion(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "version created", version)
}

func (h *ContentHandler) publishVersion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	versionID, err := parseUintParam(c, "versionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.service.PublishVersion(c.Context(), id, versionID, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "version published", page)
}

func (h *ContentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrContentPageNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "content page not found")
	case errors.Is(err, service.ErrContentVersionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "content version not found")
	case errors.Is(err, service.ErrContentSlugTaken):
		return utils.SendError(c, fiber.StatusConflict, "content slug already in use")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("content request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
