package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nemu-commission-api/internal/domain"
)

const testSecret = "test-secret"

type fakeMirror struct {
	mu    sync.Mutex
	err   error
	users []*domain.User
}

func (f *fakeMirror) Ensure(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, user)
	return f.err
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func setupAuthRouter(mirror UserMirror) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(testSecret, mirror, zap.NewNop()))
	router.GET("/me", func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.String(http.StatusOK, userID.(uuid.UUID).String())
	})
	return router
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, testSecret, jwt.MapClaims{
		"sub":      userID.String(),
		"username": "mika",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{name: "bearer header", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "query token", query: "?token=" + valid, wantStatus: http.StatusOK},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": userID.String()}), wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix(),
		}), wantStatus: http.StatusUnauthorized},
		{name: "non uuid subject", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "google-123"}), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(nil)
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestAuth_MirrorsUserOnce(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": userID.String(), "email": "kai@example.com"})
	mirror := &fakeMirror{}
	router := setupAuthRouter(mirror)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Len(t, mirror.users, 1)
	assert.Equal(t, userID, mirror.users[0].ID)
	assert.Equal(t, "user-"+userID.String(), mirror.users[0].Username)
	assert.Equal(t, "kai@example.com", mirror.users[0].Email)
}

func TestAuth_MirrorFailureDoesNotBlock(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": uuid.NewString(), "username": "kai"})
	mirror := &fakeMirror{err: errors.New("db down")}
	router := setupAuthRouter(mirror)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, mirror.users, 2, "a failed mirror is retried on the next request")
}
