package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"communities/messages/internal/models"
	"communities/messages/internal/repository"
	"communities/messages/pkg/config"
	"communities/messages/pkg/di"
	"communities/messages/pkg/logger"
	"communities/messages/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mutate func(*config.Config)) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.FromEnv()
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "test-secret"
	cfg.Authz.AllowAll = true
	cfg.Features.OpenAPIValidation = true
	if mutate != nil {
		mutate(cfg)
	}

	container, err := di.New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	r := New(container)
	require.NoError(t, r.SetupRoutes())
	r.SetupHealthRoutes()
	return r
}

func authedRequest(t *testing.T, r *Router, method, target, body string) *http.Request {
	t.Helper()
	token, err := r.Container.JWTService.GenerateToken(uuid.New())
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.DefaultCookieName, Value: token})
	return req
}

func TestCreateMessageThroughRouter(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, authedRequest(t, r, http.MethodPost, "/messages", `{"channel_id":"`+uuid.NewString()+`","content":"hello"}`))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}

func TestOpenAPIValidationRejectsUnknownFields(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, authedRequest(t, r, http.MethodPost, "/messages", `{"channel_id":"`+uuid.NewString()+`","content":"hi","author_id":"x"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

// mockMessageRepository fails the test on any call it was not told to expect
type mockMessageRepository struct {
	mock.Mock
}

func (m *mockMessageRepository) Insert(ctx context.Context, input models.CreateMessageInput) (*models.Message, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id models.MessageID) (*models.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockMessageRepository) List(ctx context.Context, filter models.MessageFilter, page models.Pagination) ([]models.Message, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

func (m *mockMessageRepository) Update(ctx context.Context, id models.MessageID, input models.UpdateMessageInput, updatedAt time.Time) (*models.Message, error) {
	args := m.Called(ctx, id, input, updatedAt)
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockMessageRepository) Delete(ctx context.Context, id models.MessageID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockMessageRepository) SetPinned(ctx context.Context, id models.MessageID, pinned bool) error {
	return m.Called(ctx, id, pinned).Error(0)
}

func (m *mockMessageRepository) Search(ctx context.Context, channelID models.ChannelID, query string, page models.Pagination) ([]models.Message, int64, error) {
	args := m.Called(ctx, channelID, query, page)
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.FromEnv()
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "test-secret"
	cfg.Authz.AllowAll = true

	repo := new(mockMessageRepository)
	container, err := di.NewWithStorage(cfg, logger.Discard(), di.Storage{
		Messages: repo,
		Health:   repository.NewMemoryMessageRepository(),
	})
	require.NoError(t, err)

	r := New(container)
	require.NoError(t, r.SetupRoutes())

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/messages/"+uuid.NewString(), nil),
		httptest.NewRequest(http.MethodGet, "/channels/"+uuid.NewString()+"/messages", nil),
		httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{"channel_id":"`+uuid.NewString()+`","content":"hi"}`)),
		httptest.NewRequest(http.MethodDelete, "/messages/"+uuid.NewString(), nil),
	}

	for _, req := range requests {
		w := httptest.NewRecorder()
		r.Engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.Method, req.URL.Path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "auth_required", body["error_code"])
		assert.EqualValues(t, http.StatusUnauthorized, body["status"])
		assert.NotEmpty(t, body["message"])
	}

	repo.AssertExpectations(t)
	assert.Empty(t, repo.Calls)
}

func TestBodyLimit(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Security.MaxBodySize = 16
		cfg.Features.OpenAPIValidation = false
	})

	body := `{"channel_id":"` + uuid.NewString() + `","content":"` + string(bytes.Repeat([]byte("a"), 64)) + `"}`
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, authedRequest(t, r, http.MethodPost, "/messages", body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"https://app.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/messages", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/messages", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEngineIsSeparate(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.HealthEngine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database_status":"connected"`)

	w = httptest.NewRecorder()
	r.HealthEngine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEqual(t, http.StatusOK, w.Code)
}
