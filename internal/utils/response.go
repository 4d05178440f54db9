package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
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

// ValidationErrorResponse reports missing required fields alongside the message.
type ValidationErrorResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	EmptyFields []string `json:"emptyFields"`
}

// SendValidationError sends a 400 naming every missing required field.
func SendValidationError(c *fiber.Ctx, message string, emptyFields []string) error {
	if message == "" {
		message = "please fill in all fields"
	}
	return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
		Success:     false,
		Message:     message,
		EmptyFields: emptyFields,
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
