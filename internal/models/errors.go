package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is a platform or client error tagged with a taxonomy code.
// Wrappers re-throw the underlying error unchanged; the code is the only
// context added.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAuthError reports an identity or session failure.
func NewAuthError(message string) *AppError {
	return &AppError{
		Code:    "AUTH_ERROR",
		Message: message,
	}
}

// NewValidationError reports a malformed request or payload.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewQueryError reports a read or write failure against the platform's
// tabular API.
func NewQueryError(err error) *AppError {
	return &AppError{
		Code:    "QUERY_ERROR",
		Message: "Query failed",
		Err:     err,
	}
}

// NewUploadError reports a blob storage failure.
func NewUploadError(err error) *AppError {
	return &AppError{
		Code:    "UPLOAD_ERROR",
		Message: "Upload failed",
		Err:     err,
	}
}

// NewNotFoundError reports a zero-row fetch.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// RespondWithError writes a standardized error response.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
