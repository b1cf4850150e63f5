package dto

import "github.com/google/uuid"

// PresignedURLRequest asks for an upload URL for a reference image
type PresignedURLRequest struct {
	EntityType  string `json:"entityType" binding:"required,oneof=REQUEST COMMISSION" example:"REQUEST"`
	FileName    string `json:"fileName" binding:"required,max=255" example:"reference.png"`
	FileSize    int64  `json:"fileSize" binding:"required" example:"1048576"`
	ContentType string `json:"contentType" binding:"required" example:"image/png"`
}

// PresignedURLResponse contains the upload URL and the TEMP attachment it backs
type PresignedURLResponse struct {
	AttachmentID uuid.UUID `json:"attachmentId"`
	UploadURL    string    `json:"uploadUrl"`
	FileKey      string    `json:"fileKey"`
	ExpiresIn    int       `json:"expiresIn" example:"300"`
}

type AttachmentResponse struct {
	ID          uuid.UUID `json:"attachmentId"`
	FileName    string    `json:"fileName"`
	FileURL     string    `json:"fileUrl"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `json:"contentType"`
}
