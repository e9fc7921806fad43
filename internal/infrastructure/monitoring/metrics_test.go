package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
		m.RecordSessionOp("start", "success", time.Millisecond)
		m.SetSessionActive(true)
		m.IncEngineQueryFailure("me")
		m.IncDetachedFailure()
		m.RecordWebhookDelivery("message", "success", time.Millisecond)
		m.IncMediaStored("image/png")
		NewTimer(m, "stop").Stop(nil)
	})
}

func TestSessionMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetSessionActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))
	m.SetSessionActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))

	NewTimer(m, "start").Stop(nil)
	NewTimer(m, "start").Stop(errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOps.WithLabelValues("start", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionOps.WithLabelValues("start", "error")))

	m.IncEngineQueryFailure("me")
	m.IncEngineQueryFailure("me")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EngineQueryFailures.WithLabelValues("me")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/sessions/:session", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/sessions/a", "/api/sessions/b", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/sessions/:session", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
