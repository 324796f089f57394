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

// LessonHandler wires lesson delivery and authoring HTTP routes.
type LessonHandler struct {
	service   service.LessonService
	progress  service.ProgressService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, progress service.ProgressService, validator *validator.Validate, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service:   service,
		progress:  progress,
		validator: validator,
		logger:    logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register attaches lesson endpoints to a course-scoped router group.
func (h *LessonHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:lessonId", h.get)
	router.Post("", h.create)
	router.Put("/:lessonId", h.update)
	router.Delete("/:lessonId", h.delete)
	router.Put("/:lessonId/complete", h.complete)
}

func (h *LessonHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	lessons, err := h.service.ListByCourse(c.Context(), courseID, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	lesson, err := h.service.Get(c.Context(), courseID, lessonID, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.Create(c.Context(), courseID, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *LessonHandler) update(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.Update(c.Context(), courseID, lessonID, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *LessonHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), courseID, lessonID, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": lessonID})
}

func (h *LessonHandler) complete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	lessonID, err := parseUintParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	record, err := h.progress.MarkLessonComplete(c.Context(), userID, courseID, lessonID)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	observability.CountLessonCompleted()

	return utils.SendSuccess(c, "lesson completed", record)
}
