package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// CourseHandler wires catalog and course authoring HTTP routes.
type CourseHandler struct {
	service   service.CourseService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, validator *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches catalog read endpoints. Anonymous access sees only
// published courses.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterProtected attaches the authoring endpoints to the router group.
func (h *CourseHandler) RegisterProtected(router fiber.Router) {
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Put("/:id", h.update)
	router.Post("/:id/publish", h.publish)
	router.Delete("/:id", h.delete)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var query dto.CourseListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.List(c.Context(), query, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendPaged(c, len(page.Courses), page.Total, page.TotalPages, page.CurrentPage, page.Courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Get(c.Context(), id, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	req := requesterFromContext(c)
	if req.Role != models.RoleInstructor && req.Role != models.RoleAdmin {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.Context(), payload, req)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(c.Context(), id, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Publish(c.Context(), id, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course published", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}
