package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/metrics"
)

func TestMountExposesDomainMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{Enabled: true, Namespace: "moments"}
	require.NoError(t, metrics.InitMetrics(cfg))
	require.NoError(t, metrics.InitMetrics(cfg))

	metrics.ObserveUpload("video", "ok")
	metrics.ObserveFetch("primary", "ok")
	metrics.ObserveResolveAttempts(2)
	metrics.ObserveProviderRequest("getFile", "ok", 30*time.Millisecond)

	engine := gin.New()
	metrics.Mount(cfg, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `moments_media_uploads_total{kind="video",result="ok"} 1`)
	assert.Contains(t, body, "moments_media_resolve_attempts_bucket")
	assert.Contains(t, body, `moments_provider_request_duration_seconds_count{method="getFile",outcome="ok"} 1`)
}

func TestMountDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	metrics.Mount(configs.MetricsConfig{}, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMountWithRuntimeMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{Enabled: true, Namespace: "moments", RuntimeMetrics: true}
	require.NoError(t, metrics.InitMetrics(cfg))

	engine := gin.New()
	metrics.Mount(cfg, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
