package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openapi "communities/messages/api"
	"communities/messages/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := NewOpenAPIValidator(context.Background(), openapi.OpenAPISpec)
	require.NoError(t, err)

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(v.Middleware())
	r.POST("/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/channels/:channel_id/messages", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/other", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func send(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidBodyPasses(t *testing.T) {
	r := newEngine(t)
	w := send(r, http.MethodPost, "/messages", `{"channel_id":"c","content":"hi","attachments":[{"name":"a","url":"u"}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestInvalidBodyRejected(t *testing.T) {
	r := newEngine(t)

	w := send(r, http.MethodPost, "/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")

	w = send(r, http.MethodPost, "/messages", `{"channel_id":"c","content":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidQueryRejected(t *testing.T) {
	r := newEngine(t)
	w := send(r, http.MethodGet, "/channels/c/messages?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodGet, "/channels/c/messages?page=2&limit=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUndocumentedRoutesPass(t *testing.T) {
	r := newEngine(t)
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/other", "").Code)
}
