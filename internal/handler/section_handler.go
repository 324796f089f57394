package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// SectionHandler wires course section HTTP routes.
type SectionHandler struct {
	service   service.SectionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSectionHandler constructs the handler.
func NewSectionHandler(service service.SectionService, validator *validator.Validate, logger zerolog.Logger) *SectionHandler {
	return &SectionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "section_handler").Logger(),
	}
}

// Register attaches section endpoints to a course-scoped router group.
func (h *SectionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:sectionId", h.update)
	router.Delete("/:sectionId", h.delete)
}

func (h *SectionHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sections, err := h.service.ListByCourse(c.Context(), courseID, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "sections retrieved", sections)
}

func (h *SectionHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SectionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, err := h.service.Create(c.Context(), courseID, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "section created", section)
}

func (h *SectionHandler) update(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	sectionID, err := parseUintParam(c, "sectionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SectionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, err := h.service.Update(c.Context(), courseID, sectionID, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "section updated", section)
}

func (h *SectionHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	sectionID, err := parseUintParam(c, "sectionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), courseID, sectionID, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "section deleted", fiber.Map{"id": sectionID})
}
