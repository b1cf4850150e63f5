package handler

import (
	"path/filepath"
	"strings"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/response"
)

func validateEntityType(entityTypeStr string) (domain.EntityType, error) {
	entityType := domain.EntityType(strings.ToUpper(entityTypeStr))

	switch entityType {
	case domain.EntityTypeRequest, domain.EntityTypeCommission:
		return entityType, nil
	default:
		return "", response.NewValidationError("Invalid entity type", "Entity type must be REQUEST or COMMISSION")
	}
}

// validateFileType accepts images only; the extension and content type must agree
func validateFileType(fileName, contentType string) error {
	fileExt := strings.ToLower(filepath.Ext(fileName))
	if fileExt == "" {
		return response.NewValidationError("Invalid file name", "File must have an extension")
	}
	if !AllowedImageTypes[contentType] || !AllowedImageExtensions[fileExt] {
		return response.NewValidationError(
			"Unsupported file type",
			"Supported types: jpg, jpeg, png, gif, webp, heic",
		)
	}
	return nil
}
