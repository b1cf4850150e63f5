package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is what an uploaded file will be attached to
type EntityType string

const (
	EntityTypeRequest    EntityType = "REQUEST"
	EntityTypeCommission EntityType = "COMMISSION"
)

type AttachmentStatus string

const (
	AttachmentStatusTemp      AttachmentStatus = "TEMP"
	AttachmentStatusConfirmed AttachmentStatus = "CONFIRMED"
)

// Attachment is an uploaded reference image. It is TEMP from the moment the
// upload URL is issued until the owning request or commission confirms it.
// EntityID is polymorphic and carries no foreign key.
type Attachment struct {
	BaseModel
	EntityType  EntityType       `gorm:"type:varchar(50);not null;index:idx_attachments_entity,priority:1" json:"entity_type"`
	EntityID    *uuid.UUID       `gorm:"type:uuid;index:idx_attachments_entity,priority:2" json:"entity_id"`
	Status      AttachmentStatus `gorm:"type:varchar(20);not null;default:'TEMP';index:idx_attachments_status" json:"status"`
	UploadedBy  uuid.UUID        `gorm:"type:uuid;not null;index:idx_attachments_uploaded_by" json:"uploaded_by"`
	FileKey     string           `gorm:"type:text;not null" json:"file_key"`
	FileName    string           `gorm:"type:varchar(255);not null" json:"file_name"`
	ContentType string           `gorm:"type:varchar(100);not null" json:"content_type"`
	FileSize    int64            `gorm:"not null" json:"file_size"`
	ExpiresAt   *time.Time       `gorm:"index:idx_attachments_expires_at" json:"expires_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// NewTempAttachment records an upload that has been granted a URL but is not
// yet owned by anything. It expires ttl after now.
func NewTempAttachment(uploader uuid.UUID, entityType EntityType, fileKey, fileName, contentType string, fileSize int64, now time.Time, ttl time.Duration) *Attachment {
	expiresAt := now.Add(ttl)
	return &Attachment{
		EntityType:  entityType,
		Status:      AttachmentStatusTemp,
		UploadedBy:  uploader,
		FileKey:     fileKey,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    fileSize,
		ExpiresAt:   &expiresAt,
	}
}

// Expired reports whether a TEMP upload is past its deadline. Confirmed
// attachments never expire.
func (a *Attachment) Expired(now time.Time) bool {
	return a.Status == AttachmentStatusTemp && a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}
