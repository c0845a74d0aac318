package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDisabledSetupIsNoop(t *testing.T) {
	shutdown, err := SetupTracing("test", false, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = SetupMetrics("test", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupTracing("test", true, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "operation")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "operation")
}

func TestHTTPMetricsAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetrics())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", MetricsHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/ping/:id",status="204"}`)
}
