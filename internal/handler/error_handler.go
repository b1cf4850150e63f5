package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/response"
)

// handleServiceError maps service layer errors to appropriate HTTP responses
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
		return
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		status := response.HTTPStatus(appErr.Code)
		if status >= http.StatusInternalServerError {
			logger.Error("Service error",
				zap.String("path", c.FullPath()),
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Any("details", appErr.Details))
			// internal details stay in the log
			response.SendError(c, status, appErr.Code, appErr.Message)
			return
		}
		logger.Debug("Request rejected",
			zap.String("path", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.String("message", appErr.Message))
		response.SendAppError(c, status, appErr)
		return
	}

	logger.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
}

// currentUserID reads the authenticated user set by the auth middleware
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}
	switch v := value.(type) {
	case uuid.UUID:
		return v, true
	case string:
		if id, err := uuid.Parse(v); err == nil {
			return id, true
		}
	}
	response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid user ID format")
	return uuid.Nil, false
}

// pathUUID parses a uuid path parameter, answering 400 when malformed
func pathUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.SendAppError(c, http.StatusBadRequest,
			response.NewValidationError("Invalid request body", err.Error()))
		return false
	}
	return true
}
