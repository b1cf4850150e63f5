package metrics

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
	// stripe object ids: cus_, in_, ii_, pi_ ...
	regexp.MustCompile(`\b(?:cus|in|ii|pi|ch|sub|price|prod)_[A-Za-z0-9]+`),
	// sendbird channel urls
	regexp.MustCompile(`sendbird_group_channel_[A-Za-z0-9_]+`),
}

var statusErrorTypes = map[int]string{
	400: "bad_request",
	401: "unauthorized",
	402: "payment_required",
	403: "forbidden",
	404: "not_found",
	408: "request_timeout",
	409: "conflict",
	429: "too_many_requests",
	500: "internal_server_error",
	502: "bad_gateway",
	503: "service_unavailable",
	504: "gateway_timeout",
}

// RecordExternalAPICall records a call to Stripe, Sendbird or the notification service.
// statusCode is 0 when no response was received.
func (m *Metrics) RecordExternalAPICall(endpoint, method string, statusCode int, duration time.Duration, err error) {
	m.safeExecute("RecordExternalAPICall", func() {
		endpoint = normalizeEndpoint(endpoint)
		status := strconv.Itoa(statusCode)

		m.ExternalAPIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		m.ExternalAPIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())

		if err != nil || statusCode >= 400 {
			m.ExternalAPIErrors.WithLabelValues(endpoint, classifyError(statusCode, err)).Inc()
		}
	})
}

// normalizeEndpoint drops the query string and replaces object ids with {id}
func normalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	for _, p := range idPatterns {
		endpoint = p.ReplaceAllString(endpoint, "{id}")
	}
	return endpoint
}

func classifyError(statusCode int, err error) string {
	if t, ok := statusErrorTypes[statusCode]; ok {
		return t
	}
	switch {
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	}
	if err == nil {
		return "unknown"
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &dnsErr):
		return "dns_error"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection_refused"
	case strings.Contains(msg, "connection reset") || strings.Contains(msg, "EOF"):
		return "connection_reset"
	case strings.Contains(msg, "certificate") || strings.Contains(msg, "tls"):
		return "tls_error"
	}
	return "network_error"
}
