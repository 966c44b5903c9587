package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

type fakeChatSrv struct {
	reply   *models.ChatReply
	err     error
	lastReq models.ChatRequest
}

func (f *fakeChatSrv) Chat(_ context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	f.lastReq = req
	return f.reply, f.err
}

func (f *fakeChatSrv) Providers() []string { return []string{"deepseek", "qwen"} }

var adminSession = &models.Session{ID: "s1", UserID: 1, Username: "admin", Name: "Administrator", IsSuperuser: true}

func pageRoutes(t *testing.T, users *fakeUserSrv, chat *fakeChatSrv) *gin.Engine {
	t.Helper()
	engine := newEngine(t)
	h := NewPageHandler(users, chat, "/api/v1")
	engine.Use(gin.CustomRecovery(h.Recover))
	engine.NoRoute(h.NotFound)

	pages := engine.Group("/", withSession(adminSession))
	pages.GET("/home", h.Home)
	pages.GET("/about", h.About)
	pages.GET("/users", h.Users)
	pages.GET("/chat", h.ChatPage)
	pages.POST("/chat", h.ChatSubmit)
	pages.GET("/boom", func(c *gin.Context) { panic("boom") })
	engine.GET("/api/v1/boom", func(c *gin.Context) { panic("boom") })
	return engine
}

func TestStaticPages(t *testing.T) {
	engine := pageRoutes(t, &fakeUserSrv{}, &fakeChatSrv{})

	rec := serve(engine, http.MethodGet, "/home", "", htmlHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, Administrator")
	assert.Contains(t, rec.Body.String(), `action="/logout"`)

	rec = serve(engine, http.MethodGet, "/about", "", htmlHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>About · AdminKit</title>")
}

func TestUsersPage(t *testing.T) {
	desc := "ops"
	users := &fakeUserSrv{users: []models.UserOut{
		{ID: 1, Name: "Administrator", Username: "admin", IsSuperuser: true, IsActive: true},
		{ID: 2, Name: "Bob", Username: "bobby", Description: desc},
	}}
	engine := pageRoutes(t, users, &fakeChatSrv{})

	rec := serve(engine, http.MethodGet, "/users?name=b", "", htmlHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-id="1"`)
	assert.Contains(t, body, `data-id="2"`)
	assert.Contains(t, body, "superuser")
	assert.Contains(t, body, "inactive")
	assert.Equal(t, "b", users.lastFilter.Name)

	users.err = appErrors.InvalidArgument("invalid order_by format")
	rec = serve(engine, http.MethodGet, "/users?order_by=nope", "", htmlHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid order_by format")
	assert.Contains(t, rec.Body.String(), "No users found.")
}

func TestChatPages(t *testing.T) {
	chat := &fakeChatSrv{reply: &models.ChatReply{ModelType: "qwen", Message: "hi", Reply: "Hello from qwen"}}
	engine := pageRoutes(t, &fakeUserSrv{}, chat)

	rec := serve(engine, http.MethodGet, "/chat", "", htmlHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="qwen">QWEN</option>`)

	rec = serve(engine, http.MethodPost, "/chat", "model_type=qwen&message=hi", formHeaders)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ChatRequest{ModelType: "qwen", Message: "hi"}, chat.lastReq)
	assert.Contains(t, rec.Body.String(), "Hello from qwen")
	assert.Contains(t, rec.Body.String(), `<option value="qwen" selected>QWEN</option>`)

	chat.err = appErrors.InvalidArgument("unknown model_type gpt")
	rec = serve(engine, http.MethodPost, "/chat", "model_type=gpt&message=hi", formHeaders)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown model_type gpt")
	assert.Contains(t, rec.Body.String(), ">hi</textarea>")

	chat.err = appErrors.Wrap(assert.AnError, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "chat provider request failed")
	rec = serve(engine, http.MethodPost, "/chat", "model_type=qwen&message=hi", formHeaders)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatSubmitRejectsUnreadableBody(t *testing.T) {
	chat := &fakeChatSrv{}
	engine := pageRoutes(t, &fakeUserSrv{}, chat)

	rec := serve(engine, http.MethodPost, "/chat", "model_type=qwen", map[string]string{"Content-Type": "multipart/form-data"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "the submitted form could not be read")
	assert.Equal(t, models.ChatRequest{}, chat.lastReq)
}

func TestNotFoundAndRecovery(t *testing.T) {
	engine := pageRoutes(t, &fakeUserSrv{}, &fakeChatSrv{})

	rec := serve(engine, http.MethodGet, "/missing", "", htmlHeaders)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<code>/missing</code>")

	rec = serve(engine, http.MethodGet, "/api/v1/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)

	rec = serve(engine, http.MethodGet, "/boom", "", htmlHeaders)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")

	rec = serve(engine, http.MethodGet, "/api/v1/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeEnvelope(t, rec).Error.Code)
}
