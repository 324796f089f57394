package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/service"
	"github.com/luminalms/lumina-api/internal/utils"
)

// AssignmentHandler wires assignment and submission HTTP routes.
type AssignmentHandler struct {
	service     service.AssignmentService
	submissions service.SubmissionService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, submissions service.SubmissionService, validator *validator.Validate, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:     service,
		submissions: submissions,
		validator:   validator,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/submissions", h.submit)
	router.Get("/:id/submissions", h.listSubmissions)
	router.Get("/:id/submissions/mine", h.mySubmission)
	router.Patch("/:id/submissions/:submissionId/grade", h.grade)
}

// RegisterCourseScoped attaches the course-scoped assignment listing.
func (h *AssignmentHandler) RegisterCourseScoped(router fiber.Router) {
	router.Get("", h.listByCourse)
}

func (h *AssignmentHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListByCourse(c.Context(), courseID, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), id, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Create(c.Context(), payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
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

	assignment, err := h.service.Update(c.Context(), id, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, requesterFromContext(c)); err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.SubmissionCreateRequest{
		Content: c.FormValue("content"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	submission, err := h.submissions.Submit(c.Context(), id, payload, file, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", submission)
}

func (h *AssignmentHandler) listSubmissions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.submissions.ListByAssignment(c.Context(), id, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentHandler) mySubmission(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.GetMine(c.Context(), id, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *AssignmentHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Grade(c.Context(), id, submissionID, payload, requesterFromContext(c))
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}
