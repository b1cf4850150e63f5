package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"nemu-commission-api/internal/metrics"
)

// unmatchedRoute labels 404s so raw paths never become label values
const unmatchedRoute = "unmatched"

// Metrics records one counter and latency sample per routed request.
// Websocket upgrades are long-lived and tracked by the kanban hub instead.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) || c.IsWebsocket() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
