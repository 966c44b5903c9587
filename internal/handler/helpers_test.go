package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	"github.com/noah-isme/adminkit/web"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	tmpl, err := web.Templates("")
	require.NoError(t, err)
	engine.SetHTMLTemplate(tmpl)
	return engine
}

// withSession pretends RequireSession already ran.
func withSession(session *models.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextSessionKey, session)
		c.Set(middleware.ContextTokenKey, "token-"+session.ID)
		c.Next()
	}
}

func serve(engine *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

var (
	jsonHeaders = map[string]string{"Content-Type": "application/json"}
	formHeaders = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	htmlHeaders = map[string]string{"Accept": "text/html"}
)
