package middleware

import (
	"errors"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemu-commission-api/internal/response"
)

// Recovery turns a handler panic into a 500 envelope. A panic caused by the
// client hanging up is logged and the connection is abandoned.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			}
			if requestID := c.GetString("request_id"); requestID != "" {
				fields = append(fields, zap.String("request_id", requestID))
			}
			if userID, ok := c.Get("user_id"); ok {
				fields = append(fields, zap.Any("user_id", userID))
			}

			if err, ok := rec.(error); ok && brokenConnection(err) {
				logger.Warn("Client connection lost", fields...)
				c.Abort()
				return
			}

			logger.Error("Panic recovered", append(fields, zap.Stack("stacktrace"))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
			c.Abort()
		}()

		c.Next()
	}
}

func brokenConnection(err error) bool {
	var syscallErr *os.SyscallError
	if !errors.As(err, &syscallErr) {
		return errors.Is(err, http.ErrAbortHandler)
	}
	return errors.Is(syscallErr.Err, syscall.EPIPE) || errors.Is(syscallErr.Err, syscall.ECONNRESET)
}
