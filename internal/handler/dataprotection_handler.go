package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/internal/utils"
)

// DataProtectionHandler exposes the subject-access export and the
// irreversible anonymization operation.
type DataProtectionHandler struct {
	service service.DataProtectionService
	logger  zerolog.Logger
}

// NewDataProtectionHandler builds a data protection handler instance.
func NewDataProtectionHandler(service service.DataProtectionService, logger zerolog.Logger) *DataProtectionHandler {
	return &DataProtectionHandler{
		service: service,
		logger:  logger.With().Str("component", "dataprotection_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Both
// operations touch personal data wholesale, so they are admin only.
func (h *DataProtectionHandler) Register(router fiber.Router) {
	admin := middleware.RequireRole("admin")

	router.Get("/students/:id/export", admin, h.export)
	router.Post("/students/:id/anonymize", admin, h.anonymize)
}

func (h *DataProtectionHandler) export(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	export, err := h.service.Export(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student data exported", export)
}

func (h *DataProtectionHandler) anonymize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Anonymize(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student anonymized", result)
}

func (h *DataProtectionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	default:
		h.logger.Error().Err(err).Msg("data protection request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
