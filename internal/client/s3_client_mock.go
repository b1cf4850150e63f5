package client

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"nemu-commission-api/internal/domain"
)

// MockS3Client implements S3ClientInterface without touching AWS
type MockS3Client struct {
	Bucket string
	Region string

	GeneratePresignedURLFunc func(ctx context.Context, entityType domain.EntityType, ownerID, fileName, contentType string) (string, string, error)
	DeleteFileFunc           func(ctx context.Context, key string) error

	DeletedKeys []string
}

// NewMockS3Client creates a new mock S3 client for testing
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{Bucket: "test-bucket", Region: "ap-northeast-2"}
}

func (m *MockS3Client) GenerateFileKey(entityType domain.EntityType, ownerID, fileExt string) (string, error) {
	return generateFileKey(entityType, ownerID, fileExt, time.Now())
}

func (m *MockS3Client) GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, ownerID, fileName, contentType string) (string, string, error) {
	if m.GeneratePresignedURLFunc != nil {
		return m.GeneratePresignedURLFunc(ctx, entityType, ownerID, fileName, contentType)
	}
	key, err := m.GenerateFileKey(entityType, ownerID, filepath.Ext(fileName))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file key: %w", err)
	}
	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=300&X-Amz-Signature=mock",
		m.Bucket, m.Region, key)
	return url, key, nil
}

func (m *MockS3Client) DeleteFile(ctx context.Context, key string) error {
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(ctx, key)
	}
	m.DeletedKeys = append(m.DeletedKeys, key)
	return nil
}

func (m *MockS3Client) GetFileURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Bucket, m.Region, key)
}

var _ S3ClientInterface = (*MockS3Client)(nil)
