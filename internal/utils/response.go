package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// PagedResponse wraps list payloads with pagination metadata.
type PagedResponse struct {
	Success     bool        `json:"success"`
	Count       int         `json:"count"`
	Total       int64       `json:"total"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
	Data        interface{} `json:"data"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendPaged sends a paginated list response.
func SendPaged(c *fiber.Ctx, count int, total int64, totalPages, currentPage int, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(PagedResponse{
		Success:     true,
		Count:       count,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Data:        data,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}
