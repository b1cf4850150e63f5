package client

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appConfig "nemu-commission-api/internal/config"
	"nemu-commission-api/internal/domain"
)

// PresignExpiry is how long an upload URL stays valid
const PresignExpiry = 5 * time.Minute

// internal docker-compose host rewritten to the configured endpoint in presigned URLs
const internalMinIOHost = "minio:9000"

var keyPrefixes = map[domain.EntityType]string{
	domain.EntityTypeRequest:    "requests",
	domain.EntityTypeCommission: "commissions",
}

// S3ClientInterface defines the interface for reference image storage
type S3ClientInterface interface {
	GenerateFileKey(entityType domain.EntityType, ownerID, fileExt string) (string, error)
	GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, ownerID, fileName, contentType string) (string, string, error)
	DeleteFile(ctx context.Context, key string) error
	GetFileURL(key string) string
}

// S3Client wraps the AWS S3 client. It also talks to MinIO when an endpoint is configured.
type S3Client struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	region        string
	endpoint      string
}

// NewS3Client creates a new S3 client
func NewS3Client(cfg *appConfig.S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}

	if cfg.Endpoint != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, fmt.Errorf("access key and secret key are required for a custom endpoint")
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	} else if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		endpoint:      cfg.Endpoint,
	}, nil
}

// GenerateFileKey builds a unique object key.
// Format: nemu/{requests|commissions}/{ownerId}/{year}/{month}/{uuid}{ext}
func (c *S3Client) GenerateFileKey(entityType domain.EntityType, ownerID, fileExt string) (string, error) {
	return generateFileKey(entityType, ownerID, fileExt, time.Now())
}

func generateFileKey(entityType domain.EntityType, ownerID, fileExt string, now time.Time) (string, error) {
	prefix, ok := keyPrefixes[entityType]
	if !ok {
		return "", fmt.Errorf("invalid entity type: %q", entityType)
	}
	if ownerID == "" {
		return "", fmt.Errorf("owner id is required")
	}
	return fmt.Sprintf("nemu/%s/%s/%s/%s/%s%s",
		prefix, ownerID, now.Format("2006"), now.Format("01"), uuid.NewString(), strings.ToLower(fileExt)), nil
}

// GeneratePresignedURL returns a PUT URL valid for PresignExpiry and the object key it writes to
func (c *S3Client) GeneratePresignedURL(ctx context.Context, entityType domain.EntityType, ownerID, fileName, contentType string) (string, string, error) {
	fileKey, err := c.GenerateFileKey(entityType, ownerID, filepath.Ext(fileName))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate file key: %w", err)
	}

	req, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(fileKey),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = PresignExpiry
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	url := req.URL
	if c.endpoint != "" {
		externalHost := strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "http://"), "https://")
		url = strings.Replace(url, internalMinIOHost, externalHost, 1)
	}
	return url, fileKey, nil
}

// DeleteFile deletes an object
func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// GetFileURL returns the download URL for key
func (c *S3Client) GetFileURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.endpoint, "/"), c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
