package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Session.Engine = "noweb"
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), engine.NOWEB)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = get(srv, "/api/sessions?all=true")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"STOPPED"`)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/start", strings.NewReader(`{"name":"other"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	w = get(srv, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backend_http_requests_total")
}

func TestServerUnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Session.Engine = "telegram"

	_, err := NewServer(cfg, logging.NewNop())
	assert.ErrorIs(t, err, engine.ErrEngineNotFound)
}

func TestServerShutdownWithoutSession(t *testing.T) {
	srv := newTestServer(t)
	assert.NoError(t, srv.Sessions().Shutdown(context.Background()))
	assert.Empty(t, srv.Sessions().GetSessions(context.Background(), false))
}

func TestServerRefusesStartAfterClose(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Session.Engine = "noweb"
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, srv.Close(context.Background()))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/start", strings.NewReader(`{"name":"default"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, srv.Sessions().GetSessions(context.Background(), false))
}
