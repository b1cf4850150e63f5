package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nemu-commission-api/internal/metrics"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// sent to the client after a successful submission
	NotificationRequestSubmitted NotificationType = "REQUEST_SUBMITTED"
	// sent to the artist for a new submission
	NotificationRequestReceived  NotificationType = "REQUEST_RECEIVED"
	NotificationRequestAccepted  NotificationType = "REQUEST_ACCEPTED"
	NotificationRequestRejected  NotificationType = "REQUEST_REJECTED"
	NotificationRequestDelivered NotificationType = "REQUEST_DELIVERED"
	NotificationInvoiceSent      NotificationType = "INVOICE_SENT"
)

// Resource types carried on notification events
const (
	ResourceRequest = "REQUEST"
	ResourceInvoice = "INVOICE"
)

// NotificationEvent represents a notification to be sent
type NotificationEvent struct {
	Type         NotificationType       `json:"type"`
	ActorID      uuid.UUID              `json:"actorId"`
	TargetUserID uuid.UUID              `json:"targetUserId"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   uuid.UUID              `json:"resourceId"`
	ResourceName string                 `json:"resourceName,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   string                 `json:"occurredAt,omitempty"`
}

// BulkNotificationRequest represents a bulk notification request
type BulkNotificationRequest struct {
	Notifications []NotificationEvent `json:"notifications"`
}

// NotificationClient delivers user notifications. Delivery is best effort:
// transport failures are logged and recorded, never returned.
type NotificationClient interface {
	SendNotification(ctx context.Context, event NotificationEvent) error
	SendBulkNotifications(ctx context.Context, events []NotificationEvent) error
}

type notificationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewNotificationClient creates a new notification API client
func NewNotificationClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) NotificationClient {
	return &notificationClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

func (c *notificationClient) SendNotification(ctx context.Context, event NotificationEvent) error {
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	return c.post(ctx, "/api/internal/notifications", event,
		zap.String("type", string(event.Type)),
		zap.String("target_user_id", event.TargetUserID.String()),
	)
}

func (c *notificationClient) SendBulkNotifications(ctx context.Context, events []NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range events {
		if events[i].OccurredAt == "" {
			events[i].OccurredAt = now
		}
	}
	return c.post(ctx, "/api/internal/notifications/bulk", BulkNotificationRequest{Notifications: events},
		zap.Int("count", len(events)),
	)
}

func (c *notificationClient) post(ctx context.Context, path string, payload interface{}, fields ...zap.Field) error {
	url := c.baseURL + path

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal notification payload", append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create notification request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-API-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, http.MethodPost, statusCode, duration, err)
	}

	if err != nil {
		c.logger.Warn("Failed to send notification", append(fields, zap.Duration("duration", duration), zap.Error(err))...)
		return nil
	}
	defer resp.Body.Close()

	if statusCode < 200 || statusCode >= 300 {
		c.logger.Warn("Notification service returned non-success status",
			append(fields, zap.Int("status_code", statusCode), zap.Duration("duration", duration))...)
		return nil
	}

	c.logger.Debug("Notification sent", append(fields, zap.Duration("duration", duration))...)
	return nil
}

// NoOpNotificationClient is used when no notification service is configured
type NoOpNotificationClient struct{}

func NewNoOpNotificationClient() NotificationClient {
	return &NoOpNotificationClient{}
}

func (c *NoOpNotificationClient) SendNotification(ctx context.Context, event NotificationEvent) error {
	return nil
}

func (c *NoOpNotificationClient) SendBulkNotifications(ctx context.Context, events []NotificationEvent) error {
	return nil
}
