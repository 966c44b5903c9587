package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

// ChatHandler exposes chat completion over JSON.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(svc chatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Chat godoc
// @Summary Chat with a model
// @Description Send one message to a configured provider (qwen, deepseek)
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body models.ChatRequest true "Chat payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := bindPayload(c, &req, "invalid chat payload"); err != nil {
		response.Error(c, err)
		return
	}

	reply, err := h.service.Chat(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reply)
}

// Providers godoc
// @Summary List chat providers
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/providers [get]
func (h *ChatHandler) Providers(c *gin.Context) {
	providers := h.service.Providers()
	if len(providers) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no chat providers configured"))
		return
	}
	response.JSON(c, http.StatusOK, providers)
}
