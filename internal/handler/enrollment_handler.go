package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/observability"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// EnrollmentHandler wires enrollment and progress HTTP routes.
type EnrollmentHandler struct {
	service   service.EnrollmentService
	progress  service.ProgressService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, progress service.ProgressService, validator *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:   service,
		progress:  progress,
		validator: validator,
		logger:    logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("", h.enroll)
	router.Get("", h.listMine)
	router.Delete("/:id", h.unenroll)
	router.Get("/progress/:courseId", h.courseProgress)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	enrollment, err := h.service.Enroll(c.Context(), payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	observability.CountEnrollment()

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) listMine(c *fiber.Ctx) error {
	enrollments, err := h.service.ListMine(c.Context(), requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) unenroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Unenroll(c.Context(), id, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "unenrolled", fiber.Map{"id": id})
}

func (h *EnrollmentHandler) courseProgress(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	progress, err := h.progress.GetCourseProgress(c.Context(), userID, courseID)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}
