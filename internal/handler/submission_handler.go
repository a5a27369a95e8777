package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/dto"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/internal/utils"
)

// SubmissionHandler manages the submission lifecycle endpoints.
type SubmissionHandler struct {
	service  service.SubmissionService
	students service.StudentService
	logger   zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, students service.StudentService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", middleware.RequireRole("student"), h.start)
	router.Post("/:id/submit", middleware.RequireRole("student"), h.submit)
	router.Patch("/:id/grade", middleware.RequireRole("admin", "teacher"), h.grade)
	router.Post("/:id/return", middleware.RequireRole("admin", "teacher"), h.returnToStudent)
	router.Post("/recompute-lateness", middleware.RequireRole("admin", "teacher"), h.recomputeLateness)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	req := dto.SubmissionListRequest{Status: c.Query("status")}
	req.Page, req.PageSize = pageParams(c)

	assignmentID, err := parseQueryUint(c, "assignment_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.AssignmentID = assignmentID

	studentID, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	req.StudentID = studentID

	// Students only ever see their own submissions regardless of filters.
	if isStudentRole(c) {
		ownID, err := h.resolveStudentID(c)
		if err != nil {
			return h.handleError(c, err)
		}
		req.StudentID = &ownID
	}

	submissions, err := h.service.List(c.Context(), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "submissions retrieved", submissions.Items, submissions.Pagination)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if isStudentRole(c) {
		ownID, err := h.resolveStudentID(c)
		if err != nil {
			return h.handleError(c, err)
		}
		if submission.StudentID != ownID {
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		}
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) start(c *fiber.Ctx) error {
	var payload dto.SubmissionStartRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	studentID, err := h.resolveStudentID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	submission, err := h.service.Start(c.Context(), studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission draft ready", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	studentID, err := h.resolveStudentID(c)
	if err != nil {
		return h.handleError(c, err)
	}

	submission, err := h.service.Submit(c.Context(), id, studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission handed in", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Grade(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *SubmissionHandler) returnToStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Return(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission returned", submission)
}

func (h *SubmissionHandler) recomputeLateness(c *fiber.Ctx) error {
	assignmentID, err := parseQueryUint(c, "assignment_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if assignmentID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment_id is required")
	}

	affected, err := h.service.RecomputeLateness(c.Context(), *assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lateness recomputed", fiber.Map{"recomputed": affected})
}

// resolveStudentID maps the authenticated account onto its student profile.
func (h *SubmissionHandler) resolveStudentID(c *fiber.Ctx) (uint, error) {
	userID := middleware.AuthenticatedUserID(c)
	if userID == 0 {
		return 0, service.ErrStudentNotFound
	}

	student, err := h.students.GetByUserID(c.Context(), userID)
	if err != nil {
		return 0, err
	}

	return student.ID, nil
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusForbidden, "no student profile linked to this account")
	case errors.Is(err, service.ErrAssignmentNotAvailable):
		return utils.SendError(c, fiber.StatusForbidden, "assignment is not available")
	case errors.Is(err, service.ErrLateNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, "late submissions are not accepted")
	case errors.Is(err, service.ErrSubmissionConflict):
		return utils.SendError(c, fiber.StatusConflict, "submission was modified concurrently")
	case errors.Is(err, models.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("submission request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
