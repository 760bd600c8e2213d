package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abduss/taskhub/internal/config"
	"github.com/abduss/taskhub/internal/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubBlob struct{ stubPinger }

func (stubBlob) Put(context.Context, io.Reader, int64, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (stubBlob) Delete(context.Context, string) error { return nil }

func testDeps(dbErr, blobErr error) Dependencies {
	return Dependencies{
		Config: config.Config{
			Metrics: config.MetricsConfig{PrometheusPath: "/metrics"},
			Blob:    config.BlobConfig{Backend: config.BlobBackendLocal},
		},
		DB:   stubPinger{err: dbErr},
		Blob: stubBlob{stubPinger{err: blobErr}},
	}
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rr.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHealthLive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(testDeps(nil, nil))

	rr, body := get(t, r, "/health/live")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rr.Header().Get(logger.CorrelationIDHeader))
}

func TestHealthReadyReportsFailingComponent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rr, body := get(t, NewRouter(testDeps(nil, nil)), "/health/ready")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, body = get(t, NewRouter(testDeps(errors.New("refused"), nil)), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "postgres", body["component"])

	rr, body = get(t, NewRouter(testDeps(nil, errors.New("no bucket"))), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "blob_store", body["component"])
	assert.Equal(t, "local", body["backend"])
}

func TestHealthReadyKeepsDriverErrorsInLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.WarnLevel)
	deps := testDeps(errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"), nil)
	deps.Logger = zap.New(core)

	rr, body := get(t, NewRouter(deps), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "postgres", body["component"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")

	entries := logs.FilterMessage("readiness check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "postgres", entries[0].ContextMap()["component"])
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
}

func TestRouterExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(testDeps(nil, nil))
	get(t, r, "/health/live")

	rr, _ := get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "taskhub_http_requests_total")
}

func TestRouterWithoutAttachmentServiceHasNoAttachmentRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(testDeps(nil, nil))

	rr, _ := get(t, r, "/v1/attachments")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
