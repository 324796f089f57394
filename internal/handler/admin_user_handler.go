package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// AdminUserHandler wires account administration HTTP routes.
type AdminUserHandler struct {
	service   service.AdminUserService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminUserHandler constructs the handler.
func NewAdminUserHandler(service service.AdminUserService, validator *validator.Validate, logger zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "admin_user_handler").Logger(),
	}
}

// Register attaches the admin user endpoints to the router group.
func (h *AdminUserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Patch("/:id/role", h.updateRole)
	router.Delete("/:id", h.delete)
}

func (h *AdminUserHandler) list(c *fiber.Ctx) error {
	var query dto.UserListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.List(c.Context(), query)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendPaged(c, len(page.Users), page.Total, page.TotalPages, page.CurrentPage, page.Users)
}

func (h *AdminUserHandler) updateRole(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.UpdateRole(c.Context(), id, payload)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "role updated", user)
}

func (h *AdminUserHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if id == userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user deleted", fiber.Map{"id": id})
}
