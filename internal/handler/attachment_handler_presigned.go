package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/response"
)

// GeneratePresignedURL godoc
// @Summary      Get an upload URL for a reference image
// @Description  Creates a TEMP attachment and returns a presigned S3 PUT URL valid for 5 minutes
// @Description  Pass the attachmentId in attachmentIds when submitting the request; unconfirmed uploads are removed after an hour
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        request body dto.PresignedURLRequest true "Upload metadata"
// @Success      200 {object} response.SuccessResponse{data=dto.PresignedURLResponse}
// @Failure      400 {object} response.ErrorResponse "Invalid request or file validation failed"
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /attachments/presigned-url [post]
// @Security     BearerAuth
func (h *AttachmentHandler) GeneratePresignedURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.PresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.FileSize <= 0 {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "File size must be greater than 0")
		return
	}
	if req.FileSize > MaxFileSize {
		response.SendError(c, http.StatusBadRequest, "FILE_TOO_LARGE", "File size exceeds 20MB limit")
		return
	}

	entityType, err := validateEntityType(req.EntityType)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if err := validateFileType(req.FileName, req.ContentType); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	uploadURL, fileKey, err := h.s3Client.GeneratePresignedURL(
		c.Request.Context(),
		entityType,
		userID.String(),
		req.FileName,
		req.ContentType,
	)
	if err != nil {
		h.logger.Error("Failed to generate presigned URL", zap.Error(err))
		response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Failed to generate presigned URL")
		return
	}

	attachment := domain.NewTempAttachment(userID, entityType, fileKey, req.FileName, req.ContentType,
		req.FileSize, time.Now(), TempAttachmentTTL)
	if err := h.attachmentRepo.Create(c.Request.Context(), attachment); err != nil {
		h.logger.Error("Failed to create attachment record", zap.Error(err))
		response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Failed to create attachment record")
		return
	}

	response.SendSuccess(c, http.StatusOK, dto.PresignedURLResponse{
		AttachmentID: attachment.ID,
		UploadURL:    uploadURL,
		FileKey:      fileKey,
		ExpiresIn:    300,
	})
}
