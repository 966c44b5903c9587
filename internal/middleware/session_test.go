package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

const testCookie = "adminkit_session"

type stubAuth struct {
	sessions map[string]*models.Session
	err      error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
}

func sessionRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/home", func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, session.Username)
	})
	return router
}

func TestRequireSessionRedirectsBrowsers(t *testing.T) {
	router := sessionRouter(RequireSession(stubAuth{}, testCookie))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))
}

func TestRequireSessionRejectsAPIClients(t *testing.T) {
	router := sessionRouter(RequireSession(stubAuth{}, testCookie))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), testCookie+"=;")
}

func TestRequireSessionAcceptsCookieAndBearer(t *testing.T) {
	auth := stubAuth{sessions: map[string]*models.Session{"tok": {ID: "s1", UserID: 1, Username: "admin"}}}
	router := sessionRouter(RequireSession(auth, testCookie))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSessionSurfacesStoreFailures(t *testing.T) {
	router := sessionRouter(RequireSession(stubAuth{err: appErrors.Internal(errors.New("redis down"), "failed to load session")}, testCookie))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOptionalSession(t *testing.T) {
	auth := stubAuth{sessions: map[string]*models.Session{"tok": {ID: "s1", UserID: 1, Username: "admin"}}}
	router := sessionRouter(OptionalSession(auth, testCookie))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "bogus"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "admin", rec.Body.String())
}
