package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/internal/utils"
)

// AssignmentHandler manages assignment endpoints.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole("admin", "teacher")

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/stats", staff, h.stats)
	router.Post("", staff, h.create)
	router.Put("/:id", staff, h.update)
	router.Post("/:id/publish", staff, h.publish)
	router.Post("/:id/unpublish", staff, h.unpublish)
	router.Delete("/:id", staff, h.delete)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	req := dto.AssignmentListRequest{Type: c.Query("type")}
	req.Page, req.PageSize = pageParams(c)

	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.ClassID = classID

	subjectID, err := parseQueryUint(c, "subject_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.SubjectID = subjectID

	teacherID, err := parseQueryUint(c, "teacher_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.TeacherID = teacherID

	if published := c.Query("published"); published != "" {
		value := published == "true" || published == "1"
		req.Published = &value
	}

	// Students never see unpublished work.
	if isStudentRole(c) {
		value := true
		req.Published = &value
	}

	if due := c.Query("due_before"); due != "" {
		parsed, err := time.Parse(time.RFC3339, due)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid due_before")
		}
		req.DueBefore = &parsed
	}
	if due := c.Query("due_after"); due != "" {
		parsed, err := time.Parse(time.RFC3339, due)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid due_after")
		}
		req.DueAfter = &parsed
	}

	assignments, err := h.service.List(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "assignments retrieved", assignments.Items, assignments.Pagination)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if isStudentRole(c) && !assignment.IsPublished {
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) stats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.service.Stats(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment stats computed", stats)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	teacherID := middleware.AuthenticatedUserID(c)
	assignment, err := h.service.Create(c.Context(), teacherID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) publish(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

func (h *AssignmentHandler) unpublish(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *AssignmentHandler) setPublished(c *fiber.Ctx, published bool) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := activityActorFromContext(c)
	var assignment dto.AssignmentResponse
	if published {
		assignment, err = h.service.Publish(c.Context(), id, actor)
	} else {
		assignment, err = h.service.Unpublish(c.Context(), id, actor)
	}
	if err != nil {
		return h.handleError(c, err)
	}

	message := "assignment published"
	if !published {
		message = "assignment unpublished"
	}

	return utils.SendSuccess(c, message, assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, models.ErrAssignmentWindow):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("assignment request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
