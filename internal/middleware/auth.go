package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/response"
)

// UserMirror keeps the local users table in step with token holders
type UserMirror interface {
	Ensure(ctx context.Context, user *domain.User) error
}

// Auth validates HS256 JWTs issued by the auth provider. The token is read from
// the Authorization header, or from the token query parameter for websocket upgrades.
// Authenticated users are mirrored into the users table once per process.
func Auth(jwtSecret string, users UserMirror, logger *zap.Logger) gin.HandlerFunc {
	var mirrored sync.Map

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Authorization header is required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "Invalid token claims")
			return
		}

		userID, err := uuid.Parse(firstClaim(claims, "user_id", "sub", "uid"))
		if err != nil {
			unauthorized(c, "Invalid user ID format")
			return
		}

		if users != nil {
			if _, done := mirrored.Load(userID); !done {
				user := &domain.User{
					BaseModel: domain.BaseModel{ID: userID},
					Username:  firstClaim(claims, "username", "preferred_username", "name"),
					Email:     firstClaim(claims, "email"),
				}
				if user.Username == "" {
					user.Username = "user-" + userID.String()
				}
				if err := users.Ensure(c.Request.Context(), user); err != nil {
					logger.Warn("Failed to mirror user", zap.String("user_id", userID.String()), zap.Error(err))
				} else {
					mirrored.Store(userID, struct{}{})
				}
			}
		}

		c.Set("user_id", userID)
		c.Set("jwtToken", tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, message)
	c.Abort()
}
