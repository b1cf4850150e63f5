package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// ErrAttachmentsUnavailable is returned when a submitted attachment id is
// unknown, already confirmed, or uploaded by someone else
var ErrAttachmentsUnavailable = errors.New("attachments are not available for confirmation")

// AttachmentRepository defines the interface for reference image data access
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error)
	FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error)
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
}

type attachmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new instance of AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepositoryImpl{db: db}
}

func (r *attachmentRepositoryImpl) Create(ctx context.Context, attachment *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepositoryImpl) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, domain.AttachmentStatusConfirmed).
		Order("created_at ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepositoryImpl) FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.AttachmentStatusTemp, now).
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// confirmAttachments binds TEMP attachments uploaded by uploader to the
// entity on tx. Every id must match; callers roll back otherwise.
func confirmAttachments(tx *gorm.DB, ids []uuid.UUID, uploader uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	result := tx.Model(&domain.Attachment{}).
		Where("id IN ? AND status = ? AND uploaded_by = ? AND entity_type = ?",
			ids, domain.AttachmentStatusTemp, uploader, entityType).
		Updates(map[string]interface{}{
			"status":     domain.AttachmentStatusConfirmed,
			"entity_id":  entityID,
			"expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("%w: expected %d, matched %d", ErrAttachmentsUnavailable, len(ids), result.RowsAffected)
	}
	return nil
}

func (r *attachmentRepositoryImpl) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Attachment{}).Error
}
