package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nemu-commission-api/internal/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
}

func setupTestRouter(m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(m))
	return router
}

func requestCount(t *testing.T, m *metrics.Metrics, method, endpoint, status string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Write(metric))
	return metric.GetCounter().GetValue()
}

// For any status code, one request increments exactly one counter by one
func TestProperty_HTTPRequestMetricsIncrement(t *testing.T) {
	m := newTestMetrics()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("counter follows status class", prop.ForAll(
		func(code int) bool {
			class := map[int]string{2: "2xx", 3: "3xx", 4: "4xx", 5: "5xx"}[code/100]
			before := requestCount(t, m, "GET", "/api/commissions/requests/:requestId", class)

			r := setupTestRouter(m)
			r.GET("/api/commissions/requests/:requestId", func(c *gin.Context) { c.Status(code) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/commissions/requests/abc", nil))

			after := requestCount(t, m, "GET", "/api/commissions/requests/:requestId", class)
			return w.Code == code && after == before+1
		},
		gen.IntRange(200, 599),
	))

	properties.TestingRun(t)
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)
	router.POST("/api/commissions/requests/:requestId/decision", func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/commissions/requests/"+id+"/decision", nil))
		require.Equal(t, http.StatusConflict, w.Code)
	}

	assert.Equal(t, float64(3), requestCount(t, m, "POST", "/api/commissions/requests/:requestId/decision", "4xx"))
}

func TestMetricsMiddleware_ExcludedEndpoints(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)
	for _, path := range []string{"/metrics", "/health", "/api/commissions/health"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	for _, path := range []string{"/metrics", "/health", "/api/commissions/health"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Zero(t, requestCount(t, m, "GET", path, "2xx"))
		})
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)

	for _, path := range []string{"/api/commissions/nope", "/wp-admin.php"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, float64(2), requestCount(t, m, "GET", unmatchedRoute, "4xx"))
}

func TestMetricsMiddleware_SkipsWebsocketUpgrade(t *testing.T) {
	m := newTestMetrics()
	router := setupTestRouter(m)
	router.GET("/api/commissions/kanbans/:kanbanId/ws", func(c *gin.Context) {
		c.Status(http.StatusSwitchingProtocols)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/commissions/kanbans/k1/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Zero(t, seriesCount(m))
}

func seriesCount(m *metrics.Metrics) int {
	ch := make(chan prometheus.Metric, 16)
	m.HTTPRequestsTotal.Collect(ch)
	close(ch)
	n := 0
	for range ch {
		n++
	}
	return n
}
