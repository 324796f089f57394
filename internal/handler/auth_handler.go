package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// AuthHandler wires authentication HTTP routes.
type AuthHandler struct {
	service   service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, validator *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/refresh", h.refresh)
}

// RegisterProtected attaches the authenticated auth endpoints.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Register(c.Context(), payload)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user registered", result)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Login(c.Context(), payload)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var payload dto.RefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Refresh(c.Context(), payload)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "token refreshed", result)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	profile, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}
