package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

const invalidFormMessage = "the submitted form could not be read"

type userLister interface {
	All(ctx context.Context, filter models.UserFilter) ([]models.UserOut, error)
}

type chatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error)
	Providers() []string
}

// PageHandler renders the server side HTML pages.
type PageHandler struct {
	users     userLister
	chat      chatService
	apiPrefix string
}

// NewPageHandler constructs a PageHandler. apiPrefix marks the routes that
// answer with JSON instead of HTML error pages.
func NewPageHandler(users userLister, chat chatService, apiPrefix string) *PageHandler {
	return &PageHandler{users: users, chat: chat, apiPrefix: apiPrefix}
}

// Home renders the landing page of a signed in user.
func (h *PageHandler) Home(c *gin.Context) {
	response.HTML(c, http.StatusOK, "home.html", pageData(c, "Home", nil))
}

// About renders the static about page.
func (h *PageHandler) About(c *gin.Context) {
	response.HTML(c, http.StatusOK, "about.html", pageData(c, "About", nil))
}

// Users renders the user table. Query parameters filter and sort it like the API.
func (h *PageHandler) Users(c *gin.Context) {
	data := gin.H{"users": []models.UserOut{}, "error_message": ""}

	filter, err := bindFilter(c)
	if err == nil {
		var users []models.UserOut
		users, err = h.users.All(c.Request.Context(), filter)
		if err == nil {
			data["users"] = users
		}
	}
	data["filter"] = filter

	status := http.StatusOK
	if err != nil {
		appErr := appErrors.FromError(err)
		status = appErr.Status
		data["error_message"] = appErr.Message
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
	}
	response.HTML(c, status, "users.html", pageData(c, "Users", data))
}

// ChatPage renders an empty chat form.
func (h *PageHandler) ChatPage(c *gin.Context) {
	response.HTML(c, http.StatusOK, "chat.html", pageData(c, "Chat", gin.H{
		"providers":     h.chat.Providers(),
		"model_type":    "",
		"message":       "",
		"response":      "",
		"error_message": "",
	}))
}

// ChatSubmit sends the posted message to the chosen model and renders the answer.
func (h *PageHandler) ChatSubmit(c *gin.Context) {
	var req models.ChatRequest
	bindErr := c.ShouldBind(&req)

	data := gin.H{
		"providers":     h.chat.Providers(),
		"model_type":    req.ModelType,
		"message":       req.Message,
		"response":      "",
		"error_message": "",
	}
	if bindErr != nil {
		_ = c.Error(bindErr)
		data["error_message"] = invalidFormMessage
		response.HTML(c, http.StatusBadRequest, "chat.html", pageData(c, "Chat", data))
		return
	}

	reply, err := h.chat.Chat(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		data["error_message"] = appErr.Message
		response.HTML(c, appErr.Status, "chat.html", pageData(c, "Chat", data))
		return
	}

	data["model_type"] = reply.ModelType
	data["response"] = reply.Reply
	response.HTML(c, http.StatusOK, "chat.html", pageData(c, "Chat", data))
}

// NotFound answers unknown routes with the 404 page, or JSON under the API prefix.
func (h *PageHandler) NotFound(c *gin.Context) {
	if h.isAPI(c) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path)))
		return
	}
	response.HTML(c, http.StatusNotFound, "404.html", pageData(c, "Not Found", gin.H{"path": c.Request.URL.Path}))
}

// Recover turns panics into the 500 page, or a JSON error under the API prefix.
func (h *PageHandler) Recover(c *gin.Context, recovered interface{}) {
	_ = c.Error(fmt.Errorf("panic: %v", recovered))
	if h.isAPI(c) {
		response.Error(c, appErrors.ErrInternal)
		c.Abort()
		return
	}
	response.HTML(c, http.StatusInternalServerError, "500.html", pageData(c, "Server Error", nil))
	c.Abort()
}

func (h *PageHandler) isAPI(c *gin.Context) bool {
	return h.apiPrefix != "" && strings.HasPrefix(c.Request.URL.Path, h.apiPrefix)
}
