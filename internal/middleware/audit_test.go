package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/adminkit/internal/models"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextSessionKey, &models.Session{UserID: 1, Username: "admin"})
		c.Next()
	})
	r.Use(Audit(zap.New(core), "users"))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/users/:id", func(c *gin.Context) { c.Status(http.StatusForbidden) })

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, "/users/7", nil))
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "users", fields["resource"])
	assert.Equal(t, http.MethodPut, fields["method"])
	assert.Equal(t, "7", fields["target"])
	assert.Equal(t, "admin", fields["actor"])
	assert.Equal(t, int64(1), fields["actor_id"])
}

func TestAuditReportsCreatedTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Audit(zap.New(core), "users"))
	r.POST("/users", func(c *gin.Context) {
		SetAuditTarget(c, "12")
		c.Status(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", nil))

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "12", fields["target"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.NotContains(t, fields, "actor")
}
