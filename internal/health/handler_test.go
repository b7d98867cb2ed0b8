package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alarino/dictweb/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	h.RegisterRoutes(engine)
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, Report) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var status Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w, status
}

func TestLivenessAndHealth(t *testing.T) {
	t.Parallel()

	engine := newEngine(NewHandler(WithVersion("1.2.3")))

	w, status := get(t, engine, PathLive)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusOK, status.Status)

	w, status = get(t, engine, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.2.3", status.Version)
	assert.NotEmpty(t, status.Uptime)
}

func TestReadiness_NoChecks(t *testing.T) {
	t.Parallel()

	w, status := get(t, newEngine(NewHandler()), "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusOK, status.Status)
}

func TestReadiness_FailingCheck(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	h := NewHandler(WithLogger(observability.NewZapLogger(zap.New(core))))
	h.AddCheck(NewCheckFunc("ok", func(context.Context) error { return nil }))
	h.AddCheck(NewCheckFunc("broken", func(context.Context) error { return errors.New("down") }))

	w, status := get(t, newEngine(h), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusError, status.Status)
	require.Contains(t, status.Checks, "broken")
	assert.Equal(t, "down", status.Checks["broken"].Error)
	assert.Equal(t, StatusOK, status.Checks["ok"].Status)
	assert.Equal(t, 1, logs.FilterMessage("readiness check failed").Len())
}

func TestReadiness_Draining(t *testing.T) {
	t.Parallel()

	h := NewHandler()
	engine := newEngine(h)

	h.SetDraining(true)
	assert.True(t, h.IsDraining())

	w, status := get(t, engine, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusDraining, status.Status)

	w, _ = get(t, engine, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadiness_Timeout(t *testing.T) {
	t.Parallel()

	h := NewHandler(WithReadinessTimeout(20 * time.Millisecond))
	h.AddCheck(NewCheckFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	w, status := get(t, newEngine(h), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusError, status.Checks["slow"].Status)
}

func TestProbePaths(t *testing.T) {
	t.Parallel()

	engine := newEngine(NewHandler())
	for _, path := range ProbePaths {
		w, _ := get(t, engine, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
