// Package handler provides HTTP request handlers for the API.
package handler

import (
	"time"

	"go.uber.org/zap"

	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/repository"
)

// AttachmentHandler issues upload URLs for request reference images
type AttachmentHandler struct {
	s3Client       client.S3ClientInterface
	attachmentRepo repository.AttachmentRepository
	logger         *zap.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(s3Client client.S3ClientInterface, attachmentRepo repository.AttachmentRepository, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		s3Client:       s3Client,
		attachmentRepo: attachmentRepo,
		logger:         logger,
	}
}

// MaxFileSize defines the maximum allowed reference image size (20MB).
const MaxFileSize = 20 * 1024 * 1024

// TempAttachmentTTL is how long an unconfirmed upload survives before cleanup
const TempAttachmentTTL = time.Hour

var (
	AllowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
		"image/heic": true,
	}

	AllowedImageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
		".heic": true,
	}
)
