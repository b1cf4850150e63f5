package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/repository"
)

// CleanupJob removes reference images that were uploaded but never bound to a request
type CleanupJob struct {
	attachmentRepo repository.AttachmentRepository
	s3Client       client.S3ClientInterface
	logger         *zap.Logger
	timeout        time.Duration
	now            func() time.Time
}

// NewCleanupJob creates a new CleanupJob instance
func NewCleanupJob(
	attachmentRepo repository.AttachmentRepository,
	s3Client client.S3ClientInterface,
	logger *zap.Logger,
) *CleanupJob {
	return &CleanupJob{
		attachmentRepo: attachmentRepo,
		s3Client:       s3Client,
		logger:         logger,
		timeout:        2 * time.Minute,
		now:            time.Now,
	}
}

// Run deletes expired TEMP attachments from S3 and then from the database.
// Rows whose object could not be deleted are kept for the next run.
func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	now := j.now()
	expired, err := j.attachmentRepo.FindExpiredTemp(ctx, now)
	if err != nil {
		j.logger.Error("Failed to find expired temporary attachments", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		j.logger.Debug("No expired temporary attachments found")
		return
	}

	var deleted []uuid.UUID
	failed := 0
	for _, attachment := range expired {
		if !attachment.Expired(now) {
			continue
		}
		if attachment.FileKey == "" {
			j.logger.Warn("Attachment has no file key",
				zap.String("attachment_id", attachment.ID.String()))
			deleted = append(deleted, attachment.ID)
			continue
		}
		if err := j.s3Client.DeleteFile(ctx, attachment.FileKey); err != nil {
			j.logger.Error("Failed to delete file from S3",
				zap.String("attachment_id", attachment.ID.String()),
				zap.String("file_key", attachment.FileKey),
				zap.Error(err))
			failed++
			continue
		}
		deleted = append(deleted, attachment.ID)
	}

	if len(deleted) > 0 {
		if err := j.attachmentRepo.DeleteBatch(ctx, deleted); err != nil {
			j.logger.Error("Failed to delete attachments from database",
				zap.Int("count", len(deleted)),
				zap.Error(err))
			return
		}
	}

	j.logger.Info("Cleanup job completed",
		zap.Int("total_expired", len(expired)),
		zap.Int("deleted", len(deleted)),
		zap.Int("failed", failed))
}
