package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/internal/handler"
	internalmiddleware "github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/pkg/config"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/web"
)

type denyAll struct{}

func (denyAll) Authenticate(context.Context, string) (*models.Session, error) {
	return nil, appErrors.ErrUnauthorized
}

func testRouter(t *testing.T, env string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	templates, err := web.Templates("")
	require.NoError(t, err)
	static, err := web.Static("")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:       env,
		APIPrefix: "/api/v1",
		Session:   config.SessionConfig{CookieName: "adminkit_session", TTL: time.Hour},
	}
	return newRouter(routerDeps{
		cfg:       cfg,
		logger:    zap.NewNop(),
		templates: templates,
		static:    static,
		auth:      denyAll{},
		limiter:   internalmiddleware.NewRateLimiter(60, 5, time.Minute),
		pages:     handler.NewPageHandler(nil, nil, cfg.APIPrefix),
		authH:     handler.NewAuthHandler(nil, handler.CookieConfig{Name: cfg.Session.CookieName, TTL: time.Hour}),
		users:     handler.NewUserHandler(nil, nil),
		chat:      handler.NewChatHandler(nil),
		tasks:     handler.NewTaskHandler(nil),
		metrics:   handler.NewMetricsHandler(nil, nil),
		echo:      handler.NewEchoHandler(nil, nil),
	})
}

func TestRouterRegistersRoutes(t *testing.T) {
	registered := map[string]bool{}
	for _, route := range testRouter(t, config.EnvDevelopment).Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /", "POST /login", "POST /logout", "GET /ws",
		"GET /home", "GET /about", "GET /users", "GET /chat", "POST /chat",
		"GET /health", "GET /ready", "GET /metrics", "GET /docs/*any",
		"POST /api/v1/auth/login", "POST /api/v1/auth/logout", "GET /api/v1/auth/me",
		"GET /api/v1/users", "GET /api/v1/users/all", "GET /api/v1/users/export",
		"GET /api/v1/users/:id", "POST /api/v1/users", "PUT /api/v1/users/:id", "DELETE /api/v1/users/:id",
		"POST /api/v1/chat", "GET /api/v1/chat/providers", "POST /api/v1/tasks", "GET /api/v1/metrics/stats",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestRouterHidesDocsInProduction(t *testing.T) {
	for _, route := range testRouter(t, config.EnvProduction).Routes() {
		assert.NotEqual(t, "/docs/*any", route.Path)
	}
}

func TestRouterGuardsPrivateRoutes(t *testing.T) {
	router := testRouter(t, config.EnvDevelopment)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}
