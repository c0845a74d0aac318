package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogErrorWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", JSON: true, Output: &buf, Service: "messages"})

	log.WithRequestID("req-1").LogError(errors.New("boom"), "insert failed", "collection", "messages")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "insert failed", record["msg"])
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "messages", record["service"])
	assert.Equal(t, "ERROR", record["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestMiddlewareSetsRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := New(Config{Level: "info", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(Middleware(base))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotSame(t, base, FromContext(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"path":"/ping"`)
	assert.Contains(t, buf.String(), `"status":204`)
}
