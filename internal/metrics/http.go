package metrics

import (
	"strconv"
	"strings"
	"time"
)

// RecordHTTPRequest records HTTP request metrics. endpoint is the route pattern.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		status := statusClass(statusCode)
		m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	})
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

var skippedSuffixes = []string{"/metrics", "/health", "/ready"}

// ShouldSkipEndpoint reports probe, scrape and swagger paths, at the root or under a base path
func ShouldSkipEndpoint(path string) bool {
	if strings.Contains(path, "/swagger/") {
		return true
	}
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
