// Package response defines the uniform API envelope and application errors.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeExternalService = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// AppError is the error type returned by the service layer
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Code + ": " + e.Message
}

// NewAppError creates a new AppError
func NewAppError(code, message string, details interface{}) *AppError {
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}
	return &AppError{Code: code, Message: message, Details: details}
}

func NewNotFoundError(message, details string) *AppError {
	return NewAppError(ErrCodeNotFound, message, details)
}

func NewForbiddenError(message, details string) *AppError {
	return NewAppError(ErrCodeForbidden, message, details)
}

func NewValidationError(message string, details interface{}) *AppError {
	return NewAppError(ErrCodeValidation, message, details)
}

func NewConflictError(message, details string) *AppError {
	return NewAppError(ErrCodeConflict, message, details)
}

func NewExternalServiceError(message, details string) *AppError {
	return NewAppError(ErrCodeExternalService, message, details)
}

// SuccessResponse is the envelope for successful responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed responses
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
}

// SendSuccess writes a success envelope
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Success: true, Data: data})
}

// SendError writes an error envelope without details
func SendError(c *gin.Context, statusCode int, code, message string) {
	SendAppError(c, statusCode, &AppError{Code: code, Message: message})
}

// SendAppError writes an error envelope carrying the AppError details
func SendAppError(c *gin.Context, statusCode int, appErr *AppError) {
	c.JSON(statusCode, ErrorResponse{Success: false, Error: appErr})
}

// HTTPStatus maps an error code to its HTTP status
func HTTPStatus(code string) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
