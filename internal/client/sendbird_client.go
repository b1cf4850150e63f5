package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"nemu-commission-api/internal/metrics"
)

// sendbird answers a duplicate user or channel with this code
const sendbirdUniqueViolation = 400202

// ErrChatDisabled is returned when no chat application is configured
var ErrChatDisabled = errors.New("chat provider is not configured")

// ChatUser is a chat identity keyed by our user id
type ChatUser struct {
	UserID   string
	Nickname string
}

// ChannelSpec describes a private two-party channel
type ChannelSpec struct {
	ChannelURL   string
	Name         string
	ClientUserID string
	ArtistUserID string
}

// ChatClient provisions chat identities and request channels.
// Both calls succeed when the resource already exists.
type ChatClient interface {
	CreateChatUser(ctx context.Context, user ChatUser) error
	CreateChatChannel(ctx context.Context, spec ChannelSpec) (string, error)
}

// SendbirdError is a non-success reply from the platform API
type SendbirdError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *SendbirdError) Error() string {
	return fmt.Sprintf("sendbird: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
}

type sendbirdClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSendbirdClient creates a ChatClient for the given application.
// baseURL overrides the application host and is empty outside tests.
func NewSendbirdClient(appID, apiToken, baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) ChatClient {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://api-%s.sendbird.com", appID)
	}
	return &sendbirdClient{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

func (c *sendbirdClient) CreateChatUser(ctx context.Context, user ChatUser) error {
	err := c.post(ctx, "/v3/users", map[string]interface{}{
		"user_id":     user.UserID,
		"nickname":    user.Nickname,
		"profile_url": "",
	}, nil)
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// CreateChatChannel creates a private channel between client and artist with
// the artist as operator. Returns the channel url.
func (c *sendbirdClient) CreateChatChannel(ctx context.Context, spec ChannelSpec) (string, error) {
	var out struct {
		ChannelURL string `json:"channel_url"`
	}
	err := c.post(ctx, "/v3/group_channels", map[string]interface{}{
		"channel_url":                 spec.ChannelURL,
		"name":                        spec.Name,
		"user_ids":                    []string{spec.ClientUserID, spec.ArtistUserID},
		"operator_ids":                []string{spec.ArtistUserID},
		"is_distinct":                 false,
		"is_public":                   false,
		"block_sdk_user_channel_join": true,
	}, &out)
	if isUniqueViolation(err) {
		return spec.ChannelURL, nil
	}
	if err != nil {
		return "", err
	}
	if out.ChannelURL == "" {
		out.ChannelURL = spec.ChannelURL
	}
	return out.ChannelURL, nil
}

func (c *sendbirdClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendbird payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf8")
	req.Header.Set("Api-Token", c.apiToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall("sendbird:"+path, http.MethodPost, statusCode, duration, err)
	}
	if err != nil {
		c.logger.Error("Sendbird request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("sendbird %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sendbird response: %w", err)
	}

	if statusCode < 200 || statusCode >= 300 {
		sbErr := &SendbirdError{StatusCode: statusCode}
		_ = json.Unmarshal(data, sbErr)
		if sbErr.Code != sendbirdUniqueViolation {
			c.logger.Error("Sendbird returned non-success status",
				zap.String("path", path),
				zap.Int("status_code", statusCode),
				zap.Int("code", sbErr.Code),
				zap.String("message", sbErr.Message),
			)
		}
		return sbErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode sendbird response: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sbErr *SendbirdError
	return errors.As(err, &sbErr) && sbErr.Code == sendbirdUniqueViolation
}

type disabledChatClient struct{}

// NewDisabledChatClient fails every call with ErrChatDisabled
func NewDisabledChatClient() ChatClient {
	return disabledChatClient{}
}

func (disabledChatClient) CreateChatUser(context.Context, ChatUser) error { return ErrChatDisabled }
func (disabledChatClient) CreateChatChannel(context.Context, ChannelSpec) (string, error) {
	return "", ErrChatDisabled
}
