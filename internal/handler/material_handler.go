package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// MaterialHandler wires course material HTTP routes.
type MaterialHandler struct {
	service   service.MaterialService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(service service.MaterialService, validator *validator.Validate, logger zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "material_handler").Logger(),
	}
}

// Register attaches material endpoints to a course-scoped router group.
func (h *MaterialHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.upload)
	router.Delete("/:materialId", h.delete)
}

func (h *MaterialHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	materials, err := h.service.ListByCourse(c.Context(), courseID, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "materials retrieved", materials)
}

func (h *MaterialHandler) upload(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	material, err := h.service.Upload(c.Context(), courseID, c.FormValue("title"), file, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material uploaded", material)
}

func (h *MaterialHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	materialID, err := parseUintParam(c, "materialId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), courseID, materialID, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "material deleted", fiber.Map{"id": materialID})
}
